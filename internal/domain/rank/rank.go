package rank

import "fmt"

// Rank は席種（S/A/B/C）を表す
type Rank string

const (
	RankS Rank = "S"
	RankA Rank = "A"
	RankB Rank = "B"
	RankC Rank = "C"
)

// Definition は席種ごとの定員と価格差分を表す
// プロセス全体で不変のカタログであり、イベントごとには保持しない
type Definition struct {
	Rank       Rank
	Capacity   int
	PriceDelta int
	// offset はシート通し番号の開始位置（グローバルID = offset + num）
	offset int
}

// カタログ本体。S:1-50, A:51-200, B:201-500, C:501-1000 の通し番号を持つ
var catalog = []Definition{
	{Rank: RankS, Capacity: 50, PriceDelta: 5000, offset: 0},
	{Rank: RankA, Capacity: 150, PriceDelta: 3000, offset: 50},
	{Rank: RankB, Capacity: 300, PriceDelta: 1000, offset: 200},
	{Rank: RankC, Capacity: 500, PriceDelta: 0, offset: 500},
}

// TotalSheets は全席種の合計シート数
const TotalSheets = 1000

// All は全席種の定義を席種順（S, A, B, C）で返す
func All() []Definition {
	defs := make([]Definition, len(catalog))
	copy(defs, catalog)
	return defs
}

// Get は席種ラベルから定義を取得する。大文字小文字は区別する
func Get(r Rank) (Definition, error) {
	for _, def := range catalog {
		if def.Rank == r {
			return def, nil
		}
	}
	return Definition{}, ErrInvalidRank
}

// IsValid は席種ラベルが有効かを返す
func IsValid(r Rank) bool {
	_, err := Get(r)
	return err == nil
}

// Sheet は1席を表す。識別子は (rank, num) で、可変状態は持たない
type Sheet struct {
	ID   int
	Rank Rank
	Num  int
}

// SheetOf は (rank, num) からシートを解決する
func SheetOf(r Rank, num int) (Sheet, error) {
	def, err := Get(r)
	if err != nil {
		return Sheet{}, err
	}
	if num < 1 || num > def.Capacity {
		return Sheet{}, ErrInvalidSheet
	}
	return Sheet{ID: def.offset + num, Rank: r, Num: num}, nil
}

// SheetByID はグローバルID（1..1000）からシートを解決する
func SheetByID(id int) (Sheet, error) {
	if id < 1 || id > TotalSheets {
		return Sheet{}, ErrInvalidSheet
	}
	for _, def := range catalog {
		if id > def.offset && id <= def.offset+def.Capacity {
			return Sheet{ID: id, Rank: def.Rank, Num: id - def.offset}, nil
		}
	}
	return Sheet{}, ErrInvalidSheet
}

// Sheets は席種に属する全シートを番号順で返す
func (d Definition) Sheets() []Sheet {
	sheets := make([]Sheet, d.Capacity)
	for i := 0; i < d.Capacity; i++ {
		sheets[i] = Sheet{ID: d.offset + i + 1, Rank: d.Rank, Num: i + 1}
	}
	return sheets
}

// SheetRange は席種のグローバルID範囲 [lo, hi] を返す
func (d Definition) SheetRange() (lo, hi int) {
	return d.offset + 1, d.offset + d.Capacity
}

// Price はイベントの基本価格に席種の差分を加えた販売価格を返す
func (d Definition) Price(basePrice int) int {
	return basePrice + d.PriceDelta
}

func (s Sheet) String() string {
	return fmt.Sprintf("%s-%d", s.Rank, s.Num)
}

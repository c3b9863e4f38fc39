package rank

import "errors"

// Rank ドメインのエラー定義
var (
	ErrInvalidRank  = errors.New("存在しない席種です")
	ErrInvalidSheet = errors.New("存在しないシートです")
)

package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockVacancyRefresher はVacancyRefresherのモック
type MockVacancyRefresher struct {
	mock.Mock
}

func (m *MockVacancyRefresher) RefreshVacancies(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestNewVacancyRefreshWorker(t *testing.T) {
	mockService := new(MockVacancyRefresher)
	interval := 10 * time.Second

	w := NewVacancyRefreshWorker(mockService, interval)

	assert.NotNil(t, w)
	assert.Equal(t, interval, w.interval)
	assert.NotNil(t, w.stopCh)
	assert.NotNil(t, w.doneCh)
}

func TestVacancyRefreshWorker_Refresh(t *testing.T) {
	t.Run("正常にリフレッシュが実行される", func(t *testing.T) {
		mockService := new(MockVacancyRefresher)
		mockService.On("RefreshVacancies", mock.Anything).Return(8, nil)

		w := NewVacancyRefreshWorker(mockService, time.Second)
		w.refresh(context.Background())

		mockService.AssertExpectations(t)
	})

	t.Run("エラーが起きてもパニックしない", func(t *testing.T) {
		mockService := new(MockVacancyRefresher)
		mockService.On("RefreshVacancies", mock.Anything).Return(0, errors.New("redis down"))

		w := NewVacancyRefreshWorker(mockService, time.Second)
		assert.NotPanics(t, func() { w.refresh(context.Background()) })
	})
}

func TestVacancyRefreshWorker_StartStop(t *testing.T) {
	t.Run("Stop で停止する", func(t *testing.T) {
		mockService := new(MockVacancyRefresher)
		mockService.On("RefreshVacancies", mock.Anything).Return(0, nil).Maybe()

		w := NewVacancyRefreshWorker(mockService, 10*time.Millisecond)
		go w.Start(context.Background())

		time.Sleep(30 * time.Millisecond)
		w.Stop()

		// doneCh が閉じていること
		select {
		case <-w.doneCh:
		default:
			t.Fatal("Stop 後に doneCh が閉じていない")
		}
	})

	t.Run("コンテキストキャンセルで停止する", func(t *testing.T) {
		mockService := new(MockVacancyRefresher)
		mockService.On("RefreshVacancies", mock.Anything).Return(0, nil).Maybe()

		ctx, cancel := context.WithCancel(context.Background())
		w := NewVacancyRefreshWorker(mockService, 10*time.Millisecond)
		go w.Start(ctx)

		cancel()

		select {
		case <-w.doneCh:
		case <-time.After(time.Second):
			t.Fatal("コンテキストキャンセル後にワーカーが停止しない")
		}
	})
}

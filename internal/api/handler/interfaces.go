package handler

import (
	"context"

	"github.com/sanosuguru/go-ticket-sales/internal/application"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/event"
	"github.com/sanosuguru/go-ticket-sales/internal/domain/reservation"
)

// AllocationServiceInterface は割り当てエンジンのインターフェース
type AllocationServiceInterface interface {
	Reserve(ctx context.Context, input application.ReserveInput) (*application.ReserveOutput, error)
	Cancel(ctx context.Context, input application.CancelInput) error
}

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	EditEvent(ctx context.Context, input application.EditEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id int64) (*event.Event, error)
	ListEvents(ctx context.Context) ([]*event.Event, error)
	ListPublicEvents(ctx context.Context) ([]*event.Event, error)
}

// ReportServiceInterface は集計サービスのインターフェース
type ReportServiceInterface interface {
	GetEventSummary(ctx context.Context, eventID int64) (*application.EventSummary, error)
	ListPublicEventSummaries(ctx context.Context) ([]*application.EventSummary, error)
	ListEventSummaries(ctx context.Context) ([]*application.EventSummary, error)
	GetEventDetail(ctx context.Context, eventID, viewerID int64) (*application.EventDetail, error)
	GetUserAccount(ctx context.Context, userID int64) (*application.UserAccount, error)
	SalesByEvent(ctx context.Context, eventID int64) ([]*reservation.SalesRecord, error)
	SalesAll(ctx context.Context) ([]*reservation.SalesRecord, error)
}

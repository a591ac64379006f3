package ports

import "rydm/internal/domain"

type StorageService interface {
	AddToHistory(entry domain.HistoryEntry) error
	GetHistory(limit int) ([]domain.HistoryEntry, error)
	DeleteFromHistory(trackIDs ...string) error
	Close() error
}

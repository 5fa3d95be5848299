package repomanager

import (
	"context"

	"github.com/dmitrijs2005/tourcheck/internal/server/repositories/documents"
)

type MemoryRepositoryManager struct {
	docs *documents.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{docs: documents.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Documents() documents.Repository { return m.docs }
func (m *MemoryRepositoryManager) Ping(context.Context) error      { return nil }
func (m *MemoryRepositoryManager) Close() error                    { return nil }

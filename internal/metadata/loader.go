package metadata

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Source lists persisted entry types.
type Source interface {
	ListEntryTypes(ctx context.Context) ([]*EntryType, error)
}

// LoadAll reads every entry type from src and populates the registry.
func LoadAll(ctx context.Context, src Source, reg *Registry, logger *zap.Logger) error {
	types, err := src.ListEntryTypes(ctx)
	if err != nil {
		return fmt.Errorf("load entry types: %w", err)
	}
	reg.Load(types)

	logger.Info("Loaded entry types into registry", zap.Int("count", len(types)))
	return nil
}

// Reload is an alias for LoadAll, called after admin mutations.
func Reload(ctx context.Context, src Source, reg *Registry, logger *zap.Logger) error {
	return LoadAll(ctx, src, reg, logger)
}

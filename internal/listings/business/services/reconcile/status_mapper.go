package reconcile

import (
	"strings"

	"golistingsync_api/internal/listings/business/models"
)

// StatusMapper translates the provider's status vocabulary into the
// canonical listing status. The table is total: anything it does not know
// maps to the error status instead of being dropped.
type StatusMapper struct {
	table map[string]models.ListingStatus
}

// DefaultStatusTable covers the provider vocabulary observed so far.
var DefaultStatusTable = map[string]string{
	"active":    string(models.StatusActive),
	"live":      string(models.StatusActive),
	"scheduled": string(models.StatusScheduled),
	"sold":      string(models.StatusSold),
	"completed": string(models.StatusSold),
	"ended":     string(models.StatusEnded),
	"unsold":    string(models.StatusEnded),
}

func NewStatusMapper(table map[string]string) *StatusMapper {
	if table == nil {
		table = DefaultStatusTable
	}
	mapper := &StatusMapper{table: make(map[string]models.ListingStatus, len(table))}
	for provider, canonical := range table {
		mapper.table[strings.ToLower(provider)] = models.ListingStatus(canonical)
	}
	return mapper
}

func (m *StatusMapper) Map(providerStatus string) models.ListingStatus {
	if status, ok := m.table[strings.ToLower(strings.TrimSpace(providerStatus))]; ok {
		return status
	}
	return models.StatusError
}

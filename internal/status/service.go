package status

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Service composes the validator, store, resolver and merger behind the six
// core operations. It owns no transport concerns: inputs arrive already
// decoded, results and taxonomy errors go back to the caller unchanged.
type Service struct {
	store Store
}

// NewService wraps a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates a report and appends it, returning the persisted record.
func (s *Service) Create(ctx context.Context, in ReportInput) (Record, error) {
	rec, err := ValidateReport(in)
	if err != nil {
		return Record{}, err
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "insert status record failed")
	}
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, errors.Wrap(err, "read back inserted record failed")
	}
	log.Debug().Int64("id", stored.ID).Str("device_id", stored.DeviceID).Msg("status record created")
	return stored, nil
}

// List returns the full history of every device.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list status records failed")
	}
	return records, nil
}

// Latest resolves the most recent record for one device. ErrNotFound when
// the device has never reported.
func (s *Service) Latest(ctx context.Context, deviceID string) (Record, error) {
	records, err := s.store.ListByDevice(ctx, deviceID)
	if err != nil {
		return Record{}, errors.Wrapf(err, "list records for device %s failed", deviceID)
	}
	latest, ok := LatestRecord(records)
	if !ok {
		return Record{}, ErrNotFound
	}
	return latest, nil
}

// Summary resolves every device's latest record and projects it. ErrNoData
// when the store holds no records at all: an empty fleet is reported as an
// error, not an empty list.
func (s *Service) Summary(ctx context.Context) ([]SummaryItem, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list records for summary failed")
	}
	items := Summarize(records)
	if len(items) == 0 {
		return nil, ErrNoData
	}
	return items, nil
}

// Update merges a partial patch onto the device's latest record and replaces
// that record's stored content in place. No new record is appended.
func (s *Service) Update(ctx context.Context, deviceID string, in UpdateInput) (Record, error) {
	patch, err := ValidateUpdate(in)
	if err != nil {
		return Record{}, err
	}
	existing, err := s.Latest(ctx, deviceID)
	if err != nil {
		return Record{}, err
	}
	merged := Merge(existing, patch)
	if err := s.store.Replace(ctx, merged); err != nil {
		return Record{}, errors.Wrapf(err, "replace record %d failed", merged.ID)
	}
	stored, err := s.store.Get(ctx, merged.ID)
	if err != nil {
		return Record{}, errors.Wrap(err, "read back updated record failed")
	}
	log.Debug().Int64("id", stored.ID).Str("device_id", stored.DeviceID).Msg("status record updated")
	return stored, nil
}

// Delete removes every record for the device. ErrNotFound when it has none;
// the check makes repeated deletes fail deterministically rather than ack.
func (s *Service) Delete(ctx context.Context, deviceID string) error {
	removed, err := s.store.DeleteDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return errors.Wrapf(err, "delete records for device %s failed", deviceID)
	}
	log.Debug().Str("device_id", deviceID).Int64("removed", removed).Msg("device records deleted")
	return nil
}

// Package store persists wire-encoded book events to Postgres so
// historical loaders can reproduce the recorded stream as rows of flat
// records.
package store

import (
	"context"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"main/internal/codec"
	"main/internal/model"
	"main/pkg/conn"
)

// Archive writes one row per book event, flat columns mirroring the
// wire record.
type Archive struct {
	client *conn.Client
}

// NewArchive opens the archive over a Postgres client and ensures the
// table exists.
func NewArchive(option conn.Option) (*Archive, error) {
	client, err := conn.New(option)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := client.DB().AutoMigrate(&EventRow{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate event rows")
	}
	return &Archive{client: client}, nil
}

// Close releases the connection pool.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.client.Close()
}

// SaveEvent flattens an event to its wire record and appends it.
func (a *Archive) SaveEvent(ctx context.Context, ev model.Event) error {
	rec, err := codec.ToRecord(ev)
	if err != nil {
		return err
	}
	row, err := rowFromRecord(rec)
	if err != nil {
		return err
	}
	if err := a.client.DB().WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(err, "insert event row").With("instrument", row.InstrumentID)
	}
	return nil
}

// LoadRange reads the recorded events for one instrument and book type
// in update id order, rebuilding them through the codec.
func (a *Archive) LoadRange(ctx context.Context, instrumentID model.InstrumentID, fromUpdateID, toUpdateID uint64) ([]model.Event, error) {
	var rows []EventRow
	q := a.client.DB().WithContext(ctx).
		Where("instrument_id = ?", instrumentID.String()).
		Order("update_id asc, id asc")
	if fromUpdateID > 0 {
		q = q.Where("update_id >= ?", fromUpdateID)
	}
	if toUpdateID > 0 {
		q = q.Where("update_id <= ?", toUpdateID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "select event rows")
	}

	events := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := codec.FromRecord(row.record())
		if err != nil {
			return nil, errors.Wrapf(err, "decode row id %d", row.ID)
		}
		events = append(events, ev)
	}
	return events, nil
}

// DB exposes the underlying handle for ad hoc queries in tooling.
func (a *Archive) DB() *gorm.DB {
	return a.client.DB()
}

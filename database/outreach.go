/*
Copyright 2024 Reclaim Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/model"
)

// RecordOutreach appends one outreach attempt to the log.
func (d Datasource) RecordOutreach(ctx context.Context, entry *model.OutreachEntry) error {
	ctx, span := otel.Tracer("Outreach").Start(ctx, "Saving outreach entry to db")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx,
		`INSERT INTO reclaim.outreach_log(
			recovery_customer_id, channel, template_used, message_preview, status
		) VALUES ($1, $2, $3, $4, $5)`,
		entry.RecoveryCustomerID, entry.Channel, entry.TemplateUsed,
		entry.MessagePreview, entry.Status,
	)

	return err
}

// GetOutreachLog retrieves the outreach history for a recovery customer,
// newest first.
func (d Datasource) GetOutreachLog(ctx context.Context, recoveryCustomerID int64) ([]*model.OutreachEntry, error) {
	ctx, span := otel.Tracer("Outreach").Start(ctx, "Fetching outreach log from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, recovery_customer_id, channel, template_used, message_preview, status, created_at
		FROM reclaim.outreach_log
		WHERE recovery_customer_id = $1
		ORDER BY created_at DESC, id DESC
	`, recoveryCustomerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.OutreachEntry

	for rows.Next() {
		entry := &model.OutreachEntry{}
		err = rows.Scan(
			&entry.ID, &entry.RecoveryCustomerID, &entry.Channel,
			&entry.TemplateUsed, &entry.MessagePreview, &entry.Status, &entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

package handler

import (
	"time"

	"healthchain/internal/record"
	id "healthchain/pkg/domain"
)

// CreatedResponse carries the identifier of a newly stored record.
type CreatedResponse struct {
	ID id.RecordID `json:"id"`
}

// RecordResponse is the wire shape of one record.
type RecordResponse struct {
	ID          id.RecordID                     `json:"id"`
	Owner       id.UserID                       `json:"owner"`
	ContentRef  string                          `json:"content_ref,omitempty"`
	Name        string                          `json:"name"`
	Type        string                          `json:"type"`
	Size        uint64                          `json:"size"`
	ParentID    id.RecordID                     `json:"parent_id,omitempty"`
	CreatedAt   time.Time                       `json:"created_at"`
	Access      map[id.UserID]record.Permission `json:"access"`
	Tags        []string                        `json:"tags,omitempty"`
	KeyEnvelope string                          `json:"key_envelope,omitempty"`
}

// FromRecord converts a domain record into its response shape.
func FromRecord(rec *record.Record) RecordResponse {
	return RecordResponse{
		ID:          rec.ID,
		Owner:       rec.Owner,
		ContentRef:  rec.ContentRef,
		Name:        rec.Name,
		Type:        rec.Type,
		Size:        rec.Size,
		ParentID:    rec.ParentID,
		CreatedAt:   rec.CreatedAt,
		Access:      rec.Access,
		Tags:        rec.Tags,
		KeyEnvelope: rec.KeyEnvelope,
	}
}

// FromRecords converts a record list into its response shape.
func FromRecords(recs []*record.Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	return out
}

// SharedRecordResponse is one entry in the "shared with me" view.
type SharedRecordResponse struct {
	Record        RecordResponse `json:"record"`
	OwnerName     string         `json:"owner_name"`
	OwnerVerified bool           `json:"owner_verified"`
}

// FromInfos converts enriched record infos into their response shape.
func FromInfos(infos []record.Info) []SharedRecordResponse {
	out := make([]SharedRecordResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, SharedRecordResponse{
			Record:        FromRecord(info.Record),
			OwnerName:     info.OwnerName,
			OwnerVerified: info.OwnerVerified,
		})
	}
	return out
}

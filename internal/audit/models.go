package audit

import (
	"time"

	id "healthchain/pkg/domain"
)

// Action tags what a privileged operation did. Values end up in stored
// entries and on the Kafka topic, so they are append-only API surface.
type Action string

const (
	ActionUpload             Action = "upload"
	ActionCreateFolder       Action = "create_folder"
	ActionGrantAccess        Action = "grant_access"
	ActionRevokeAccess       Action = "revoke_access"
	ActionSubmitForResearch  Action = "submit_for_research"
	ActionRequestAccess      Action = "request_access"
	ActionApproveRequest     Action = "approve_request"
	ActionDenyRequest        Action = "deny_request"
	ActionRename             Action = "rename"
	ActionAddRole            Action = "add_role"
	ActionPromoteAdmin       Action = "promote_admin"
	ActionSubmitVerification Action = "submit_verification"
	ActionApproveIdentity    Action = "approve_identity"
	ActionUpdateSettings     Action = "update_settings"
	ActionCreateDataset      Action = "create_dataset"
	ActionCreateBounty       Action = "create_bounty"
)

// Entry is one audit trail record. Entries are append-only: nothing ever
// mutates or deletes one. The ID doubles as the logical timestamp; the store
// guarantees it increases strictly between appends.
type Entry struct {
	ID        id.LogID    `json:"id"`
	Actor     string      `json:"actor"`
	Action    Action      `json:"action"`
	RecordID  id.RecordID `json:"record_id,omitempty"`
	Target    string      `json:"target,omitempty"`
	MetaRef   string      `json:"meta_ref,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

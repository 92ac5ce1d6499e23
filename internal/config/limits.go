package config

import "time"

const (
	// RedeemTokenTTL bounds the external-login handoff: the browser must
	// redeem the token within this window.
	RedeemTokenTTL = 300 * time.Second

	// WebSessionTTL is the sliding lifetime of a browser session.
	WebSessionTTL = 8 * time.Hour

	// ContextRecordTTL is the sliding lifetime of a session context record.
	// Refreshed on every write.
	ContextRecordTTL = 24 * time.Hour

	// MaxUserIdentifierLength fits the VARCHAR(255) access_log column.
	MaxUserIdentifierLength = 255

	// MaxQuestionLength caps literal questions sent to the model.
	MaxQuestionLength = 20000

	// MaxToolRounds caps model-initiated function calls within one turn.
	MaxToolRounds = 5

	// MaxAttachedFileBytes caps a single decoded attachment.
	MaxAttachedFileBytes = 2 << 20

	// MaxSQLRows caps rows returned by a tenant sql_query action.
	MaxSQLRows = 200
)

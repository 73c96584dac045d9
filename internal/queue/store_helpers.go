package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, token, topic, category, kind, expertise, target_minutes, owner_id, status, voices_json, research_json, script_json, canonical_name, artifacts_json, duration_seconds, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat, needs_review, review_reason"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		token            string
		topic            string
		category         string
		kind             string
		expertise        sql.NullString
		targetMinutes    sql.NullInt64
		ownerID          sql.NullString
		statusStr        string
		voicesJSON       sql.NullString
		researchJSON     sql.NullString
		scriptJSON       sql.NullString
		canonicalName    sql.NullString
		artifactsJSON    sql.NullString
		durationSeconds  sql.NullFloat64
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		lastHeartbeatRaw sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&token,
		&topic,
		&category,
		&kind,
		&expertise,
		&targetMinutes,
		&ownerID,
		&statusStr,
		&voicesJSON,
		&researchJSON,
		&scriptJSON,
		&canonicalName,
		&artifactsJSON,
		&durationSeconds,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		Token:           token,
		Topic:           topic,
		Category:        category,
		Kind:            kind,
		Expertise:       expertise.String,
		TargetMinutes:   int(targetMinutes.Int64),
		OwnerID:         ownerID.String,
		Status:          Status(statusStr),
		VoicesJSON:      voicesJSON.String,
		ResearchJSON:    researchJSON.String,
		ScriptJSON:      scriptJSON.String,
		CanonicalName:   canonicalName.String,
		ArtifactsJSON:   artifactsJSON.String,
		DurationSeconds: durationSeconds.Float64,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		ReviewReason:    reviewReason.String,
	}
	if needsReview.Valid {
		job.NeedsReview = needsReview.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

// internal/sinks/postgres.go
package sinks

import (
	"context"
	"database/sql"
	"fmt"

	"rsd-dataset/internal/common/database"
	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/pipeline"
)

const (
	createRunsTable = `CREATE TABLE IF NOT EXISTS rsd_runs (
	run_id       TEXT PRIMARY KEY,
	seed         BIGINT NOT NULL,
	records      INTEGER NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
)`

	createRecordsTable = `CREATE TABLE IF NOT EXISTS rsd_records (
	run_id                       TEXT NOT NULL REFERENCES rsd_runs(run_id) ON DELETE CASCADE,
	id                           INTEGER NOT NULL,
	country_of_origin            TEXT NOT NULL,
	gender                       TEXT NOT NULL,
	age                          INTEGER NOT NULL,
	education_level              TEXT NOT NULL,
	language_proficiency         TEXT NOT NULL,
	family_size                  INTEGER NOT NULL,
	prior_camp_years             INTEGER NOT NULL,
	persecution_ground           TEXT NOT NULL,
	persecution_type             TEXT NOT NULL,
	nexus_established            BOOLEAN NOT NULL,
	state_protection_score       DOUBLE PRECISION NOT NULL,
	internal_relocation_possible BOOLEAN NOT NULL,
	reported_trauma              BOOLEAN NOT NULL,
	credibility_score            DOUBLE PRECISION NOT NULL,
	risk_score                   DOUBLE PRECISION NOT NULL,
	risk_score_uncapped          DOUBLE PRECISION NOT NULL,
	integration_score            DOUBLE PRECISION NOT NULL,
	ai_decision                  TEXT NOT NULL,
	human_reviewed               BOOLEAN NOT NULL,
	human_override               BOOLEAN NOT NULL,
	final_decision               TEXT NOT NULL,
	processing_time_days         INTEGER NOT NULL,
	appealed                     BOOLEAN NOT NULL,
	appeal_outcome               TEXT NOT NULL,
	bias_flag                    TEXT NOT NULL,
	PRIMARY KEY (run_id, id)
)`

	insertRun = `INSERT INTO rsd_runs (run_id, seed, records, generated_at) VALUES ($1, $2, $3, $4)`

	insertRecord = `INSERT INTO rsd_records (
	run_id, id, country_of_origin, gender, age, education_level, language_proficiency,
	family_size, prior_camp_years, persecution_ground, persecution_type, nexus_established,
	state_protection_score, internal_relocation_possible, reported_trauma, credibility_score,
	risk_score, risk_score_uncapped, integration_score, ai_decision, human_reviewed,
	human_override, final_decision, processing_time_days, appealed, appeal_outcome, bias_flag
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
	$19, $20, $21, $22, $23, $24, $25, $26, $27)`
)

type PostgresSink struct {
	client *database.PostgresClient
}

func NewPostgresSink(client *database.PostgresClient) *PostgresSink {
	return &PostgresSink{client: client}
}

func (s *PostgresSink) Name() string { return "postgres" }

// EnsureSchema creates rsd_runs and rsd_records if they are missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createRunsTable, createRecordsTable} {
		if _, err := s.client.Exec(ctx, stmt); err != nil {
			return errors.NewSinkWriteFailedError(s.Name(), fmt.Errorf("ensure schema: %w", err))
		}
	}
	return nil
}

// Write inserts the run row and every record in one transaction.
func (s *PostgresSink) Write(ctx context.Context, ds *pipeline.Dataset) error {
	err := s.client.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertRun, ds.RunID, ds.Seed, ds.Len(), ds.GeneratedAt); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, insertRecord)
		if err != nil {
			return fmt.Errorf("prepare record insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range ds.Records {
			if _, err := stmt.ExecContext(ctx,
				ds.RunID, r.ID, string(r.CountryOfOrigin), string(r.Gender), r.Age,
				string(r.EducationLevel), string(r.LanguageProficiency), r.FamilySize, r.PriorCampYears,
				string(r.PersecutionGround), string(r.PersecutionType), r.NexusEstablished,
				r.StateProtectionScore, r.InternalRelocationPossible, r.ReportedTrauma, r.CredibilityScore,
				r.RiskScore, r.RiskScoreUncapped, r.IntegrationScore, string(r.AIDecision), r.HumanReviewed,
				r.HumanOverride, string(r.FinalDecision), r.ProcessingTimeDays, r.Appealed,
				string(r.AppealOutcome), string(r.BiasFlag),
			); err != nil {
				return fmt.Errorf("insert record %d: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return errors.NewSinkWriteFailedError(s.Name(), err)
	}
	return nil
}

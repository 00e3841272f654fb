package topics

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"warranty-copilot/internal/shared/config"
)

func TestPGStoreGetDecodesIssues(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{"topic_id", "display_name", "additional_notes", "additional_topic_info", "issues"}).
		AddRow("cr_doors", "Doors", "", "info", []byte(`[{"issue_number":1,"observation":"Door binds","corrective_measure":"Adjust","associated_copilot_flow":"door_binding","subtopics":["frame"]}]`))
	mock.ExpectQuery("SELECT topic_id, display_name").
		WithArgs("prod_azure_data", "doors").
		WillReturnRows(rows)

	store := &PGStore{DB: db}
	topic, err := store.Get(context.Background(), config.BuildEnvStage, "doors")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(topic.Issues) != 1 || topic.Issues[0].IssueNumber != 1 {
		t.Fatalf("unexpected issues %+v", topic.Issues)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT topic_id, display_name").
		WithArgs("dev_azure_data", "roof").
		WillReturnRows(sqlmock.NewRows([]string{"topic_id", "display_name", "additional_notes", "additional_topic_info", "issues"}))

	_, err = (&PGStore{DB: db}).Get(context.Background(), config.BuildEnvDev, "roof")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStorePutUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	topic := doorsTopic()
	mock.ExpectExec("INSERT INTO warranty_topics").
		WithArgs(
			"dev_azure_data",
			"doors",
			topic.TopicID,
			topic.DisplayName,
			topic.AdditionalNotes,
			topic.AdditionalTopicInfo,
			sqlmock.AnyArg(), // issues jsonb
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (&PGStore{DB: db}).Put(context.Background(), config.BuildEnvDev, "doors", topic); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

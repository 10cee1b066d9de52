package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS datasets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question_count INTEGER NOT NULL DEFAULT 0,
    submitted_by TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'raw',
    created_on TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS raw_questions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dataset_id INTEGER REFERENCES datasets(id),
    question_text TEXT,
    question_language TEXT,
    question_text_english TEXT,
    question_format TEXT,
    context TEXT,
    question_asked_on TEXT,
    student_name TEXT,
    student_gender TEXT,
    student_class TEXT,
    school TEXT,
    curriculum_followed TEXT,
    medium_language TEXT,
    area TEXT,
    state TEXT,
    published INTEGER NOT NULL DEFAULT 0,
    published_source TEXT,
    published_date TEXT,
    notes TEXT,
    contributor TEXT,
    contributor_role TEXT,
    submitted_by TEXT NOT NULL,
    created_on TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS questions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question_text TEXT,
    question_language TEXT,
    question_text_english TEXT,
    question_format TEXT,
    context TEXT,
    question_asked_on TEXT,
    student_name TEXT,
    student_gender TEXT,
    student_class TEXT,
    school TEXT,
    curriculum_followed TEXT,
    medium_language TEXT,
    area TEXT,
    state TEXT,
    published INTEGER NOT NULL DEFAULT 0,
    published_source TEXT,
    published_date TEXT,
    notes TEXT,
    contributor TEXT,
    contributor_role TEXT,
    field_of_interest TEXT,
    submission_id INTEGER,
    curated_by TEXT,
    subject_of_session TEXT,
    question_topic_relation TEXT,
    motivation TEXT,
    type_of_information TEXT,
    source TEXT,
    curiosity_index TEXT,
    urban_or_rural TEXT,
    type_of_school TEXT,
    comments_on_coding_rationale TEXT,
    encoded_by TEXT,
    created_on TEXT DEFAULT (datetime('now')),
    updated_on TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS translated_questions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question_id INTEGER NOT NULL REFERENCES questions(id),
    question_text TEXT NOT NULL,
    language TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS answers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question_id INTEGER NOT NULL REFERENCES questions(id),
    answer_text TEXT NOT NULL,
    answered_by TEXT NOT NULL,
    created_on TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS uncurated_submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    submission_id INTEGER UNIQUE NOT NULL,
    excel_sheet_name TEXT NOT NULL,
    number_of_questions INTEGER NOT NULL DEFAULT 0,
    curated INTEGER NOT NULL DEFAULT 0,
    created_on TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS unencoded_submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    submission_id INTEGER UNIQUE NOT NULL,
    excel_sheet_name TEXT NOT NULL,
    number_of_questions INTEGER NOT NULL DEFAULT 0,
    encoded INTEGER NOT NULL DEFAULT 0,
    created_on TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_raw_questions_dataset ON raw_questions(dataset_id);
CREATE INDEX IF NOT EXISTS idx_questions_state ON questions(state);
CREATE INDEX IF NOT EXISTS idx_questions_submission ON questions(submission_id);
CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id);
CREATE INDEX IF NOT EXISTS idx_translated_questions_question ON translated_questions(question_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

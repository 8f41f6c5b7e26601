package storage

// Schema is idempotent; every run executes it on open.
const schema = `
CREATE TABLE IF NOT EXISTS hospitals (
    hospital_no        INTEGER PRIMARY KEY,
    name               TEXT NOT NULL,
    url                TEXT DEFAULT '',
    final_url          TEXT DEFAULT '',
    category           TEXT DEFAULT '',
    phone              TEXT DEFAULT '',
    address            TEXT DEFAULT '',
    cms_platform       TEXT DEFAULT '',
    status             TEXT NOT NULL DEFAULT 'pending',
    prev_status        TEXT NOT NULL DEFAULT '',
    doctor_page_exists INTEGER NOT NULL DEFAULT 0,
    schema_version     INTEGER NOT NULL DEFAULT 2,
    crawled_at         TIMESTAMP,
    created_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS social_channels (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    hospital_no       INTEGER NOT NULL REFERENCES hospitals(hospital_no),
    platform          TEXT NOT NULL,
    url               TEXT NOT NULL,
    extraction_method TEXT NOT NULL DEFAULT '',
    confidence        REAL NOT NULL DEFAULT 1.0,
    status            TEXT NOT NULL DEFAULT 'active',
    UNIQUE (hospital_no, platform, url)
);

CREATE TABLE IF NOT EXISTS doctors (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    hospital_no       INTEGER NOT NULL REFERENCES hospitals(hospital_no),
    name              TEXT NOT NULL,
    name_english      TEXT DEFAULT '',
    role              TEXT DEFAULT '',
    photo_url         TEXT DEFAULT '',
    education_json    TEXT DEFAULT '[]',
    career_json       TEXT DEFAULT '[]',
    credentials_json  TEXT DEFAULT '[]',
    branch            TEXT DEFAULT '',
    branches_json     TEXT DEFAULT '[]',
    extraction_source TEXT DEFAULT 'dom',
    ocr_source        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS crawl_errors (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    hospital_no INTEGER NOT NULL REFERENCES hospitals(hospital_no),
    type        TEXT NOT NULL,
    message     TEXT DEFAULT '',
    step        TEXT DEFAULT '',
    retryable   INTEGER NOT NULL DEFAULT 1,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_hospitals_status ON hospitals(status);
CREATE INDEX IF NOT EXISTS idx_channels_hospital ON social_channels(hospital_no);
CREATE INDEX IF NOT EXISTS idx_doctors_hospital ON doctors(hospital_no);
CREATE INDEX IF NOT EXISTS idx_errors_hospital ON crawl_errors(hospital_no);
`

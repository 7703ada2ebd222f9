package database

// migrations maps version to SQL; RunMigrations applies them in version order
var migrations = map[int]string{
	1: migration001,
	2: migration002,
	3: migration003,
}

const migration001 = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

-- Profiles keyed by the auth provider's user id
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email VARCHAR(255) NOT NULL,
    full_name VARCHAR(120),
    username VARCHAR(50) UNIQUE,
    avatar_url TEXT,
    unit_system VARCHAR(10) NOT NULL DEFAULT 'imperial',
    emergency_contacts TEXT,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS trails (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    slug VARCHAR(200) UNIQUE NOT NULL,
    park_area VARCHAR(200) NOT NULL DEFAULT '',
    short_description TEXT NOT NULL DEFAULT '',
    long_description TEXT NOT NULL DEFAULT '',
    trailhead_name VARCHAR(200) NOT NULL DEFAULT '',
    route_type VARCHAR(50) NOT NULL DEFAULT '',
    difficulty VARCHAR(20) NOT NULL CHECK (LOWER(difficulty) IN ('easy', 'moderate', 'hard')),
    tags TEXT[] NOT NULL DEFAULT '{}',
    dog_friendly BOOLEAN NOT NULL DEFAULT FALSE,
    kid_friendly BOOLEAN NOT NULL DEFAULT FALSE,
    distance_miles DOUBLE PRECISION,
    elevation_gain_ft INT,
    popularity_rank INT,
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    featured BOOLEAN NOT NULL DEFAULT FALSE,
    image_key TEXT,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_trails_difficulty ON trails(LOWER(difficulty));
CREATE INDEX IF NOT EXISTS idx_trails_featured ON trails(featured) WHERE featured;

CREATE TABLE IF NOT EXISTS trail_reviews (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    trail_id UUID NOT NULL REFERENCES trails(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
    comment TEXT,
    created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_trail_reviews_trail ON trail_reviews(trail_id);
`

const migration002 = `
CREATE TABLE IF NOT EXISTS favorites (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    trail_id UUID NOT NULL REFERENCES trails(id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE(user_id, trail_id)
);

CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
`

const migration003 = `
CREATE TABLE IF NOT EXISTS sos_alerts (
    id UUID PRIMARY KEY,
    user_id UUID REFERENCES users(id) ON DELETE SET NULL,
    trail_id UUID REFERENCES trails(id) ON DELETE SET NULL,
    trail_name VARCHAR(200),
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    message TEXT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'sent',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    received_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sos_alerts_user ON sos_alerts(user_id, created_at DESC);
`

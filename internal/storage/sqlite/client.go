package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/storage/models"
	"github.com/horizonbi/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS indicator_definitions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		calculation_type TEXT NOT NULL,
		base_weight REAL NOT NULL DEFAULT 1.0,
		threshold_high REAL,
		threshold_low REAL
	);

	CREATE TABLE IF NOT EXISTS indicator_keywords (
		indicator_id TEXT NOT NULL,
		keyword TEXT NOT NULL,
		weight REAL NOT NULL DEFAULT 1.0,
		language TEXT NOT NULL DEFAULT 'en',
		PRIMARY KEY (indicator_id, keyword, language),
		FOREIGN KEY (indicator_id) REFERENCES indicator_definitions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_keywords_indicator ON indicator_keywords(indicator_id);

	CREATE TABLE IF NOT EXISTS indicator_dependencies (
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		weight REAL NOT NULL,
		relationship TEXT NOT NULL,
		PRIMARY KEY (parent_id, child_id),
		FOREIGN KEY (parent_id) REFERENCES indicator_definitions(id),
		FOREIGN KEY (child_id) REFERENCES indicator_definitions(id)
	);

	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		source_name TEXT,
		source_credibility REAL,
		category TEXT,
		published_at INTEGER,
		ingested_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at);

	CREATE TABLE IF NOT EXISTS article_indicator_mappings (
		article_id TEXT NOT NULL,
		indicator_id TEXT NOT NULL,
		match_confidence REAL NOT NULL,
		matched_keywords TEXT,
		classification_method TEXT NOT NULL,
		article_published_at INTEGER,
		PRIMARY KEY (article_id, indicator_id),
		FOREIGN KEY (article_id) REFERENCES articles(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_mappings_indicator ON article_indicator_mappings(indicator_id);

	CREATE TABLE IF NOT EXISTS indicator_values (
		indicator_id TEXT NOT NULL,
		time INTEGER NOT NULL,
		value REAL NOT NULL,
		confidence REAL NOT NULL,
		source_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (indicator_id, time)
	);
	CREATE INDEX IF NOT EXISTS idx_values_time ON indicator_values(time);

	CREATE TABLE IF NOT EXISTS company_profiles (
		company_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		industry TEXT,
		business_scale TEXT,
		dependencies TEXT,
		sensitivities TEXT,
		risk_tolerance REAL,
		geographic_exposure TEXT
	);

	CREATE TABLE IF NOT EXISTS operational_values (
		company_id TEXT NOT NULL,
		code TEXT NOT NULL,
		time INTEGER NOT NULL,
		value REAL NOT NULL,
		normalized_value REAL NOT NULL,
		previous_value REAL,
		change_percentage REAL,
		industry_average REAL,
		confidence REAL NOT NULL,
		national_inputs TEXT,
		PRIMARY KEY (time, company_id, code)
	);
	CREATE INDEX IF NOT EXISTS idx_operational_company ON operational_values(company_id, code);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertDefinition(def *models.IndicatorDefinition) error {
	query := `
		INSERT INTO indicator_definitions (id, name, category, calculation_type, base_weight, threshold_high, threshold_low)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			calculation_type = excluded.calculation_type,
			base_weight = excluded.base_weight
	`

	_, err := c.db.Exec(
		query,
		def.ID,
		def.Name,
		string(def.Category),
		string(def.CalculationType),
		def.BaseWeight,
		def.ThresholdHigh,
		def.ThresholdLow,
	)

	if err != nil {
		return fmt.Errorf("failed to insert indicator definition: %w", err)
	}

	return nil
}

func (c *Client) GetDefinitions() ([]models.IndicatorDefinition, error) {
	query := `SELECT id, name, category, calculation_type, base_weight, threshold_high, threshold_low FROM indicator_definitions ORDER BY id`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator definitions: %w", err)
	}
	defer rows.Close()

	var definitions []models.IndicatorDefinition
	for rows.Next() {
		var def models.IndicatorDefinition
		var category, calcType string
		var high, low sql.NullFloat64

		err := rows.Scan(&def.ID, &def.Name, &category, &calcType, &def.BaseWeight, &high, &low)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		def.Category = models.Category(category)
		def.CalculationType = models.CalculationType(calcType)
		if high.Valid {
			def.ThresholdHigh = &high.Float64
		}
		if low.Valid {
			def.ThresholdLow = &low.Float64
		}
		definitions = append(definitions, def)
	}

	return definitions, nil
}

func (c *Client) InsertKeyword(kw *models.IndicatorKeyword) error {
	query := `INSERT OR IGNORE INTO indicator_keywords (indicator_id, keyword, weight, language) VALUES (?, ?, ?, ?)`

	_, err := c.db.Exec(query, kw.IndicatorID, kw.Keyword, kw.Weight, kw.Language)
	if err != nil {
		return fmt.Errorf("failed to insert keyword: %w", err)
	}

	return nil
}

func (c *Client) GetKeywords() ([]models.IndicatorKeyword, error) {
	query := `SELECT indicator_id, keyword, weight, language FROM indicator_keywords ORDER BY indicator_id, keyword`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get keywords: %w", err)
	}
	defer rows.Close()

	var keywords []models.IndicatorKeyword
	for rows.Next() {
		var kw models.IndicatorKeyword
		err := rows.Scan(&kw.IndicatorID, &kw.Keyword, &kw.Weight, &kw.Language)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		keywords = append(keywords, kw)
	}

	return keywords, nil
}

func (c *Client) InsertDependency(dep *models.IndicatorDependency) error {
	query := `INSERT OR REPLACE INTO indicator_dependencies (parent_id, child_id, weight, relationship) VALUES (?, ?, ?, ?)`

	_, err := c.db.Exec(query, dep.ParentID, dep.ChildID, dep.Weight, string(dep.Relationship))
	if err != nil {
		return fmt.Errorf("failed to insert dependency: %w", err)
	}

	return nil
}

func (c *Client) GetDependencies() ([]models.IndicatorDependency, error) {
	query := `SELECT parent_id, child_id, weight, relationship FROM indicator_dependencies`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get dependencies: %w", err)
	}
	defer rows.Close()

	var dependencies []models.IndicatorDependency
	for rows.Next() {
		var dep models.IndicatorDependency
		var relationship string
		err := rows.Scan(&dep.ParentID, &dep.ChildID, &dep.Weight, &relationship)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		dep.Relationship = models.RelationshipType(relationship)
		dependencies = append(dependencies, dep)
	}

	return dependencies, nil
}

func (c *Client) InsertArticle(article *models.Article) error {
	query := `
		INSERT INTO articles (id, title, body, source_name, source_credibility, category, published_at, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			category = excluded.category
	`

	var publishedAt interface{}
	if article.PublishedAt != nil {
		publishedAt = article.PublishedAt.Unix()
	}

	_, err := c.db.Exec(
		query,
		article.ID,
		article.Title,
		article.Body,
		article.SourceName,
		article.SourceCredibility,
		string(article.Category),
		publishedAt,
		article.IngestedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	logger.Debug("Article inserted", zap.String("article_id", article.ID))
	return nil
}

func (c *Client) GetArticlesSince(since time.Time) ([]models.Article, error) {
	query := `
		SELECT id, title, body, source_name, source_credibility, category, published_at, ingested_at
		FROM articles
		WHERE ingested_at >= ?
		ORDER BY ingested_at
	`

	rows, err := c.db.Query(query, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var a models.Article
		var category string
		var publishedAt sql.NullInt64
		var ingestedAt int64

		err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.SourceName, &a.SourceCredibility, &category, &publishedAt, &ingestedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		a.Category = models.Category(category)
		if publishedAt.Valid {
			t := time.Unix(publishedAt.Int64, 0)
			a.PublishedAt = &t
		}
		a.IngestedAt = time.Unix(ingestedAt, 0)
		articles = append(articles, a)
	}

	return articles, nil
}

func (c *Client) InsertMapping(mapping *models.ArticleIndicatorMapping) error {
	keywordsJSON, _ := json.Marshal(mapping.MatchedKeywords)

	query := `
		INSERT OR REPLACE INTO article_indicator_mappings
			(article_id, indicator_id, match_confidence, matched_keywords, classification_method, article_published_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var publishedAt interface{}
	if mapping.ArticlePublishedAt != nil {
		publishedAt = mapping.ArticlePublishedAt.Unix()
	}

	_, err := c.db.Exec(
		query,
		mapping.ArticleID,
		mapping.IndicatorID,
		mapping.MatchConfidence,
		string(keywordsJSON),
		mapping.ClassificationMethod,
		publishedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert mapping: %w", err)
	}

	return nil
}

func (c *Client) GetMappingsSince(since time.Time) ([]models.ArticleIndicatorMapping, error) {
	query := `
		SELECT m.article_id, m.indicator_id, m.match_confidence, m.matched_keywords, m.classification_method, m.article_published_at
		FROM article_indicator_mappings m
		JOIN articles a ON a.id = m.article_id
		WHERE a.ingested_at >= ?
	`

	rows, err := c.db.Query(query, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.ArticleIndicatorMapping
	for rows.Next() {
		var m models.ArticleIndicatorMapping
		var keywordsJSON string
		var publishedAt sql.NullInt64

		err := rows.Scan(&m.ArticleID, &m.IndicatorID, &m.MatchConfidence, &keywordsJSON, &m.ClassificationMethod, &publishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		json.Unmarshal([]byte(keywordsJSON), &m.MatchedKeywords)
		if publishedAt.Valid {
			t := time.Unix(publishedAt.Int64, 0)
			m.ArticlePublishedAt = &t
		}
		mappings = append(mappings, m)
	}

	return mappings, nil
}

func (c *Client) AppendIndicatorValue(value *models.IndicatorValue) error {
	query := `
		INSERT OR REPLACE INTO indicator_values (indicator_id, time, value, confidence, source_count)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		value.IndicatorID,
		value.Time.Unix(),
		value.Value,
		value.Confidence,
		value.SourceCount,
	)

	if err != nil {
		return fmt.Errorf("failed to append indicator value: %w", err)
	}

	return nil
}

func (c *Client) GetSeries(indicatorID string, from, to time.Time) ([]models.IndicatorValue, error) {
	query := `
		SELECT indicator_id, time, value, confidence, source_count
		FROM indicator_values
		WHERE indicator_id = ? AND time >= ? AND time <= ?
		ORDER BY time
	`

	rows, err := c.db.Query(query, indicatorID, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to get series: %w", err)
	}
	defer rows.Close()

	var series []models.IndicatorValue
	for rows.Next() {
		var v models.IndicatorValue
		var ts int64
		err := rows.Scan(&v.IndicatorID, &ts, &v.Value, &v.Confidence, &v.SourceCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		v.Time = time.Unix(ts, 0).UTC()
		series = append(series, v)
	}

	return series, nil
}

func (c *Client) GetLatestValues() (map[string]float64, error) {
	query := `
		SELECT v.indicator_id, v.value
		FROM indicator_values v
		JOIN (SELECT indicator_id, MAX(time) AS max_time FROM indicator_values GROUP BY indicator_id) latest
			ON v.indicator_id = latest.indicator_id AND v.time = latest.max_time
	`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var id string
		var value float64
		err := rows.Scan(&id, &value)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values[id] = value
	}

	return values, nil
}

func (c *Client) UpsertCompanyProfile(profile *models.CompanyProfile) error {
	dependenciesJSON, _ := json.Marshal(profile.Dependencies)
	sensitivitiesJSON, _ := json.Marshal(profile.Sensitivities)
	exposureJSON, _ := json.Marshal(profile.GeographicExposure)

	query := `
		INSERT OR REPLACE INTO company_profiles
			(company_id, name, industry, business_scale, dependencies, sensitivities, risk_tolerance, geographic_exposure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		profile.CompanyID,
		profile.Name,
		profile.Industry,
		profile.BusinessScale,
		string(dependenciesJSON),
		string(sensitivitiesJSON),
		profile.RiskTolerance,
		string(exposureJSON),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert company profile: %w", err)
	}

	return nil
}

func (c *Client) GetCompanyProfile(companyID string) (*models.CompanyProfile, error) {
	query := `
		SELECT company_id, name, industry, business_scale, dependencies, sensitivities, risk_tolerance, geographic_exposure
		FROM company_profiles
		WHERE company_id = ?
	`

	var profile models.CompanyProfile
	var dependenciesJSON, sensitivitiesJSON, exposureJSON string

	err := c.db.QueryRow(query, companyID).Scan(
		&profile.CompanyID,
		&profile.Name,
		&profile.Industry,
		&profile.BusinessScale,
		&dependenciesJSON,
		&sensitivitiesJSON,
		&profile.RiskTolerance,
		&exposureJSON,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get company profile: %w", err)
	}

	json.Unmarshal([]byte(dependenciesJSON), &profile.Dependencies)
	json.Unmarshal([]byte(sensitivitiesJSON), &profile.Sensitivities)
	json.Unmarshal([]byte(exposureJSON), &profile.GeographicExposure)

	return &profile, nil
}

func (c *Client) InsertOperationalValue(value *models.OperationalIndicatorValue) error {
	inputsJSON, _ := json.Marshal(value.NationalInputs)

	query := `
		INSERT OR REPLACE INTO operational_values
			(company_id, code, time, value, normalized_value, previous_value, change_percentage, industry_average, confidence, national_inputs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		value.CompanyID,
		value.Code,
		value.Time.Unix(),
		value.Value,
		value.NormalizedValue,
		value.PreviousValue,
		value.ChangePercentage,
		value.IndustryAverage,
		value.Confidence,
		string(inputsJSON),
	)

	if err != nil {
		return fmt.Errorf("failed to insert operational value: %w", err)
	}

	return nil
}

func (c *Client) GetLatestOperationalValues(companyID string) (map[string]float64, error) {
	query := `
		SELECT o.code, o.value
		FROM operational_values o
		JOIN (SELECT code, MAX(time) AS max_time FROM operational_values WHERE company_id = ? GROUP BY code) latest
			ON o.code = latest.code AND o.time = latest.max_time
		WHERE o.company_id = ?
	`

	rows, err := c.db.Query(query, companyID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest operational values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var code string
		var value float64
		err := rows.Scan(&code, &value)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values[code] = value
	}

	return values, nil
}

package db

import (
	"context"
	"time"

	"autoapply/internal/validation"
)

// BlacklistEntry is one excluded employer.
type BlacklistEntry struct {
	Company string    `json:"company"`
	Reason  string    `json:"reason"`
	AddedAt time.Time `json:"added_at"`
}

// AddBlacklistCompany adds a company to the blacklist. Names are normalized
// before storage; re-adding is a no-op (set semantics). Blank names are
// dropped so a stray empty seed-file entry cannot enter the set.
func (d *DB) AddBlacklistCompany(ctx context.Context, company, reason string) error {
	name := validation.NormalizeName(company)
	if name == "" {
		return nil
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO blacklist_companies (company, reason)
		VALUES ($1, $2)
		ON CONFLICT (company) DO NOTHING
	`, name, reason)
	return err
}

// AddBlacklistKeyword adds an excluded title keyword. Keywords are matched as
// case-insensitive substrings of job titles. Blank keywords are dropped: an
// empty string is a substring of every title and would blacklist everything.
func (d *DB) AddBlacklistKeyword(ctx context.Context, keyword string) error {
	kw := validation.NormalizeName(keyword)
	if kw == "" {
		return nil
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO blacklist_keywords (keyword)
		VALUES ($1)
		ON CONFLICT (keyword) DO NOTHING
	`, kw)
	return err
}

// ListBlacklistCompanies returns all blacklisted companies.
func (d *DB) ListBlacklistCompanies(ctx context.Context) ([]BlacklistEntry, error) {
	rows, err := d.Pool.Query(ctx,
		"SELECT company, reason, added_at FROM blacklist_companies ORDER BY company")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []BlacklistEntry
	for rows.Next() {
		var e BlacklistEntry
		if err := rows.Scan(&e.Company, &e.Reason, &e.AddedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListBlacklistKeywords returns all excluded title keywords.
func (d *DB) ListBlacklistKeywords(ctx context.Context) ([]string, error) {
	rows, err := d.Pool.Query(ctx,
		"SELECT keyword FROM blacklist_keywords ORDER BY keyword")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// IsBlacklisted reports whether the company is blacklisted or any excluded
// keyword appears in the job title. It reads the store on every call so an
// operator's additions take effect on the very next evaluation.
func (d *DB) IsBlacklisted(ctx context.Context, company, title string) (bool, error) {
	var blocked bool
	err := d.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM blacklist_companies WHERE company = $1)
			OR EXISTS (SELECT 1 FROM blacklist_keywords WHERE POSITION(keyword IN $2) > 0)
	`, validation.NormalizeName(company), validation.NormalizeName(title)).Scan(&blocked)
	return blocked, err
}

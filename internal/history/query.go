package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"
)

// ProjectActivity aggregates the transcript log per project.
type ProjectActivity struct {
	Project      string
	SessionCount int
	EntryCount   int
	LastActivity time.Time
}

// Exchange is one logged message, user or assistant.
type Exchange struct {
	Role      string
	Content   string
	Timestamp time.Time
}

type queryResult struct {
	Activity  []ProjectActivity
	Exchanges []Exchange
	Error     error
}

// FetchProjectActivity summarizes the transcript log per project, most
// recently active first. An empty or missing log yields no rows and no
// error.
func FetchProjectActivity(ctx context.Context, dir string) ([]ProjectActivity, error) {
	glob, ok, err := logGlob(dir)
	if err != nil || !ok {
		return nil, err
	}

	database, err := getDB()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			project,
			COUNT(DISTINCT CAST(session_id AS VARCHAR)) as session_count,
			COUNT(*) as entry_count,
			MAX(timestamp) as last_activity
		FROM read_json('%s',
			format = 'newline_delimited',
			union_by_name = true
		)
		WHERE session_id IS NOT NULL
		GROUP BY project
		ORDER BY MAX(timestamp) DESC
	`, glob)

	resultChan := executeActivityQuery(ctx, database, query)
	select {
	case result := <-resultChan:
		return result.Activity, result.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FetchRecentExchanges returns the last limit entries for a session in
// chronological order.
func FetchRecentExchanges(ctx context.Context, dir, sessionID string, limit int) ([]Exchange, error) {
	glob, ok, err := logGlob(dir)
	if err != nil || !ok {
		return nil, err
	}

	database, err := getDB()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT role, content, timestamp
		FROM read_json('%s',
			format = 'newline_delimited',
			union_by_name = true
		)
		WHERE CAST(session_id AS VARCHAR) = ?
		ORDER BY timestamp DESC
		LIMIT %d
	`, glob, limit)

	resultChan := executeExchangesQuery(ctx, database, query, sessionID)
	select {
	case result := <-resultChan:
		if result.Error != nil {
			return nil, result.Error
		}
		// Newest-first from the query; present oldest-first.
		exchanges := result.Exchanges
		for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
			exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
		}
		return exchanges, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// logGlob reports the glob for the transcript files, and whether any
// exist at all.
func logGlob(dir string) (string, bool, error) {
	glob := filepath.Join(dir, "*.jsonl")
	matches, err := filepath.Glob(glob)
	if err != nil {
		return "", false, fmt.Errorf("scan history directory: %w", err)
	}
	return glob, len(matches) > 0, nil
}

func executeActivityQuery(ctx context.Context, database *sql.DB, query string) <-chan queryResult {
	resultChan := make(chan queryResult, 1)

	go func() {
		defer close(resultChan)

		queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		rows, err := database.QueryContext(queryCtx, query)
		if err != nil {
			deliver(ctx, resultChan, queryResult{Error: err})
			return
		}
		defer rows.Close()

		var activity []ProjectActivity
		for rows.Next() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			var row ProjectActivity
			var lastActivity sql.NullString
			if err := rows.Scan(&row.Project, &row.SessionCount, &row.EntryCount, &lastActivity); err != nil {
				continue
			}
			row.LastActivity = parseTimestamp(lastActivity)
			activity = append(activity, row)
		}

		deliver(ctx, resultChan, queryResult{Activity: activity})
	}()

	return resultChan
}

func executeExchangesQuery(ctx context.Context, database *sql.DB, query, sessionID string) <-chan queryResult {
	resultChan := make(chan queryResult, 1)

	go func() {
		defer close(resultChan)

		queryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		rows, err := database.QueryContext(queryCtx, query, sessionID)
		if err != nil {
			deliver(ctx, resultChan, queryResult{Error: fmt.Errorf("failed to query exchanges: %w", err)})
			return
		}
		defer rows.Close()

		var exchanges []Exchange
		for rows.Next() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			var exchange Exchange
			var timestamp sql.NullString
			if err := rows.Scan(&exchange.Role, &exchange.Content, &timestamp); err != nil {
				continue
			}
			exchange.Timestamp = parseTimestamp(timestamp)
			exchanges = append(exchanges, exchange)
		}

		deliver(ctx, resultChan, queryResult{Exchanges: exchanges})
	}()

	return resultChan
}

func deliver(ctx context.Context, resultChan chan<- queryResult, result queryResult) {
	select {
	case resultChan <- result:
	case <-ctx.Done():
	}
}

func parseTimestamp(value sql.NullString) time.Time {
	if !value.Valid {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value.String); err == nil {
			return t.Local()
		}
	}
	return time.Time{}
}

package db

import (
	"context"
	"fmt"
	"time"

	sb "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"

	"swipefeed/models"
)

// Tidy removes dislike interactions older than ttl so those profiles can
// show up in the feed again. Likes are never removed.
func Tidy(ctx context.Context, cfg ConnectionConfig, ttl time.Duration) (int64, error) {
	conn, err := connection(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	sql, args := tidyDelete(time.Now().Add(-ttl))

	log.WithFields(log.Fields{
		"sql":  sql,
		"args": args,
	}).Info("Tidying database")

	res, err := conn.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("tidy error: %w", err)
	}

	return res.RowsAffected()
}

func tidyDelete(before time.Time) (string, []interface{}) {
	deleteInteractions := sb.PostgreSQL.NewDeleteBuilder()
	deleteInteractions.DeleteFrom("interactions").Where(
		deleteInteractions.Equal("interaction_type", string(models.InteractionDislike)),
		deleteInteractions.LessEqualThan("created_at", before),
	)
	return deleteInteractions.Build()
}

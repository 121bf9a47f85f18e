package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oraclebets/oraclebets/internal/domain"
)

// archiveBatchSize bounds how many markets one export query pulls at a time.
const archiveBatchSize = 500

// SettlementsPrefix is the object key prefix for exported settlement records.
const SettlementsPrefix = "archive/settlements/"

// SettlementRecord is one exported market together with every bet placed on
// it, the full settlement record for that market.
type SettlementRecord struct {
	Market domain.Market `json:"market"`
	Bets   []domain.Bet  `json:"bets"`
}

// Archive implements domain.Archiver. It exports terminal markets and their
// bets to object storage as JSONL, partitioned by the cutoff month. The
// primary store keeps every market; the archive is the off-database copy.
type Archive struct {
	writer  domain.BlobWriter
	markets domain.MarketStore
	bets    domain.BetStore
}

// NewArchiver creates an Archive.
func NewArchiver(writer domain.BlobWriter, markets domain.MarketStore, bets domain.BetStore) *Archive {
	return &Archive{
		writer:  writer,
		markets: markets,
		bets:    bets,
	}
}

// ArchiveSettled exports every resolved, cancelled, and expired market
// created before the cutoff, one JSONL line per market, and returns the
// number of exported markets. An empty result uploads nothing.
func (a *Archive) ArchiveSettled(ctx context.Context, before time.Time) (int64, error) {
	var records []SettlementRecord

	for offset := 0; ; offset += archiveBatchSize {
		markets, err := a.markets.ListTerminalBefore(ctx, before, domain.ListOpts{
			Limit:  archiveBatchSize,
			Offset: offset,
		})
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive settled query: %w", err)
		}
		if len(markets) == 0 {
			break
		}

		for _, m := range markets {
			bets, err := a.listAllBets(ctx, m.MarketID)
			if err != nil {
				return 0, fmt.Errorf("s3blob: archive settled bets %d: %w", m.MarketID, err)
			}
			records = append(records, SettlementRecord{Market: m, Bets: bets})
		}

		if len(markets) < archiveBatchSize {
			break
		}
	}

	if len(records) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive settled marshal: %w", err)
	}

	path := archivePath(before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive settled upload: %w", err)
	}

	return int64(len(records)), nil
}

// listAllBets pages through every bet on a market. The exported record must
// be complete; a truncated bet list would silently corrupt the archive.
func (a *Archive) listAllBets(ctx context.Context, marketID uint64) ([]domain.Bet, error) {
	var bets []domain.Bet
	for offset := 0; ; offset += archiveBatchSize {
		page, err := a.bets.ListByMarket(ctx, marketID, domain.ListOpts{
			Limit:  archiveBatchSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		bets = append(bets, page...)
		if len(page) < archiveBatchSize {
			return bets, nil
		}
	}
}

// archivePath builds the object key, partitioned by the cutoff year-month:
//
//	archive/settlements/2026-02.jsonl
func archivePath(before time.Time) string {
	return SettlementsPrefix + before.Format("2006-01") + ".jsonl"
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archive)(nil)

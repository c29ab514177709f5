package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/ellavondegurechaff/gavel/gavelbot/auction"
)

// ArchiveService writes one TOML document per finished auction to an
// S3-compatible bucket (DigitalOcean Spaces) and appends a one-line summary
// to a per-channel CSV spreadsheet.
type ArchiveService struct {
	client *s3.Client
	bucket string
	root   string
}

func NewArchiveService(key, secret, region, bucket, root string) (*ArchiveService, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive storage config: %w", err)
	}

	return &ArchiveService{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		root:   strings.Trim(root, "/"),
	}, nil
}

// auctionDocument is the TOML shape of an archived auction; field names
// match the spreadsheet-facing vocabulary rather than the Go structs.
type auctionDocument struct {
	Prize      string        `toml:"prize,omitempty"`
	MinimumBid int64         `toml:"minimum_bid"`
	RaiseLimit int64         `toml:"raise_limit"`
	Duration   int64         `toml:"duration"`
	Helmet     int64         `toml:"helmet"`
	Opened     time.Time     `toml:"opened"`
	Closed     time.Time     `toml:"closed"`
	Winner     *bidDocument  `toml:"WINNER,omitempty"`
	Bids       []bidDocument `toml:"BID,omitempty"`
}

type bidDocument struct {
	Amount int64     `toml:"amount"`
	Bidder string    `toml:"bidder"`
	Placed time.Time `toml:"placed"`
}

// StoreAuction uploads the full TOML record and then the CSV summary row.
// The TOML document is the primary record; a summary failure is logged but
// does not fail the call once the document is stored.
func (s *ArchiveService) StoreAuction(ctx context.Context, channelID snowflake.ID, fin *auction.FinishedAuction) error {
	data, err := toml.Marshal(document(fin))
	if err != nil {
		return fmt.Errorf("failed to serialize auction record: %w", err)
	}

	key := s.objectKey(fileName(channelID, fin))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/toml"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload auction record: %w", err)
	}

	slog.Info("Archived auction record",
		slog.String("channel_id", channelID.String()),
		slog.String("key", key))

	if err := s.appendSummary(ctx, channelID, fin); err != nil {
		slog.Warn("Failed to append auction summary row",
			slog.String("channel_id", channelID.String()),
			slog.Any("error", err))
	}
	return nil
}

func document(fin *auction.FinishedAuction) auctionDocument {
	doc := auctionDocument{
		Prize:      fin.Prize,
		MinimumBid: fin.MinBid,
		RaiseLimit: fin.MaxRaise,
		Duration:   int64(fin.Duration / time.Second),
		Helmet:     int64(fin.Helmet / time.Second),
		Opened:     fin.Opened.UTC().Truncate(time.Second),
		Closed:     fin.Closed.UTC().Truncate(time.Second),
	}
	for _, bid := range fin.Bids {
		doc.Bids = append(doc.Bids, bidDocument{
			Amount: bid.Amount,
			Bidder: bid.Bidder,
			Placed: bid.Placed.UTC().Truncate(time.Second),
		})
	}
	if fin.Winner != nil {
		doc.Winner = &bidDocument{
			Amount: fin.Winner.Amount,
			Bidder: fin.Winner.Bidder,
			Placed: fin.Winner.Placed.UTC().Truncate(time.Second),
		}
	}
	return doc
}

// fileName builds "auction-<channel>-<yyyymmdd-hhmmss>[-<prize>].toml" with
// the prize snake-cased into something filesystem-friendly.
func fileName(channelID snowflake.ID, fin *auction.FinishedAuction) string {
	stem := fmt.Sprintf("auction-%s-%s", channelID, fin.Opened.UTC().Format("20060102-150405"))
	if fin.Prize != "" {
		stem += "-" + snakeCase(fin.Prize)
	}
	return stem + ".toml"
}

func snakeCase(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

var summaryHeader = []string{"Opened", "Closed", "DurationSeconds", "Winner", "WinningBid", "Prize"}

// appendSummary rewrites the per-channel summary spreadsheet with one more
// row. Object storage has no append, so the existing sheet is fetched,
// extended, and put back; the sheet stays small (one row per auction).
func (s *ArchiveService) appendSummary(ctx context.Context, channelID snowflake.ID, fin *auction.FinishedAuction) error {
	key := s.objectKey(fmt.Sprintf("summary-%s.csv", channelID))

	existing, err := s.fetchObject(ctx, key)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if len(existing) > 0 {
		buf.Write(existing)
		if !bytes.HasSuffix(existing, []byte("\n")) {
			buf.WriteString("\r\n")
		}
	} else if err := w.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	if err := w.Write(summaryRow(fin)); err != nil {
		return fmt.Errorf("failed to write summary row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload summary sheet: %w", err)
	}
	return nil
}

func summaryRow(fin *auction.FinishedAuction) []string {
	winner := ""
	winningBid := ""
	if fin.Winner != nil {
		winner = fin.Winner.Bidder
		winningBid = strconv.FormatInt(fin.Winner.Amount, 10)
	}
	return []string{
		fin.Opened.UTC().Format(time.RFC3339),
		fin.Closed.UTC().Format(time.RFC3339),
		strconv.FormatInt(int64(fin.Duration/time.Second), 10),
		winner,
		winningBid,
		fin.Prize,
	}
}

func (s *ArchiveService) fetchObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *ArchiveService) objectKey(name string) string {
	if s.root == "" {
		return name
	}
	return s.root + "/" + name
}

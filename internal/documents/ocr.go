package documents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// TextExtractor turns a document image into plain text lines.
type TextExtractor interface {
	ExtractLines(ctx context.Context, image []byte) ([]string, error)
}

type textractExtractor struct {
	client *textract.Client
}

func NewTextractExtractor(ctx context.Context, region, accessKey, secretKey string) (TextExtractor, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documents: load aws config: %w", err)
	}
	return &textractExtractor{client: textract.NewFromConfig(cfg)}, nil
}

func (t *textractExtractor) ExtractLines(ctx context.Context, image []byte) ([]string, error) {
	out, err := t.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: image},
	})
	if err != nil {
		return nil, fmt.Errorf("documents: detect text: %w", err)
	}
	var lines []string
	for _, block := range out.Blocks {
		if block.BlockType == types.BlockTypeLine && block.Text != nil {
			lines = append(lines, aws.ToString(block.Text))
		}
	}
	return lines, nil
}

var (
	chequeNumberPattern = regexp.MustCompile(`(?i)(?:cheque|check)\s*(?:no\.?|number|#)?\s*[:\-]?\s*(\d{4,12})`)
	amountPattern       = regexp.MustCompile(`(?:\$|USD|AED|Rs\.?)\s*([0-9][0-9,]*(?:\.\d{1,2})?)`)
	datePatterns        = []struct {
		re     *regexp.Regexp
		layout string
	}{
		{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), "2006-01-02"},
		{regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`), "02/01/2006"},
		{regexp.MustCompile(`\b(\d{1,2} (?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{4})\b`), "2 January 2006"},
	}
)

// ParseChequeFields scans OCR lines for the cheque number, amount and
// date. Fields that cannot be recovered stay zero; the caller decides
// what a partial extraction means.
func ParseChequeFields(lines []string) ChequeFields {
	var fields ChequeFields
	for _, line := range lines {
		if fields.ChequeNumber == "" {
			if m := chequeNumberPattern.FindStringSubmatch(line); m != nil {
				fields.ChequeNumber = m[1]
			}
		}
		if fields.AmountCents == 0 {
			if m := amountPattern.FindStringSubmatch(line); m != nil {
				if cents, ok := parseAmountCents(m[1]); ok {
					fields.AmountCents = cents
				}
			}
		}
		if fields.Date == nil {
			for _, dp := range datePatterns {
				m := dp.re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				if ts, err := time.Parse(dp.layout, normalizeMonth(m[1], dp.layout)); err == nil {
					fields.Date = &ts
					break
				}
			}
		}
	}
	return fields
}

func parseAmountCents(s string) (int64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int64(f*100 + 0.5), true
}

// normalizeMonth expands abbreviated month names so a single layout
// parses both "3 Aug 2026" and "3 August 2026".
func normalizeMonth(s, layout string) string {
	if !strings.Contains(layout, "January") {
		return s
	}
	months := map[string]string{
		"Jan": "January", "Feb": "February", "Mar": "March", "Apr": "April",
		"Jun": "June", "Jul": "July", "Aug": "August", "Sep": "September",
		"Oct": "October", "Nov": "November", "Dec": "December",
	}
	parts := strings.Fields(s)
	for i, part := range parts {
		for abbr, full := range months {
			if part == full {
				return s
			}
			if strings.HasPrefix(part, abbr) {
				parts[i] = full
				return strings.Join(parts, " ")
			}
		}
	}
	return s
}

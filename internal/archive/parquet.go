package archive

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

type parquetAnswer struct {
	Question         string `parquet:"question"`
	SQL              string `parquet:"sql"`
	Answer           string `parquet:"answer"`
	Outcome          string `parquet:"outcome"`
	FromCache        bool   `parquet:"from_cache"`
	RowCount         int64  `parquet:"row_count"`
	AnsweredAtUnixMs int64  `parquet:"answered_at_unix_ms"`
}

func encodeRecordsToParquet(records []Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("records are required")
	}

	rows := make([]parquetAnswer, 0, len(records))
	for _, record := range records {
		rows = append(rows, parquetAnswer{
			Question:         record.Question,
			SQL:              record.SQL,
			Answer:           record.Answer,
			Outcome:          record.Outcome,
			FromCache:        record.FromCache,
			RowCount:         record.RowCount,
			AnsweredAtUnixMs: record.AnsweredAt.UnixMilli(),
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetAnswer](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

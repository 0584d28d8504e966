package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gwbench/internal/stats"

	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

// sampleRow is the Parquet schema of one request.
type sampleRow struct {
	Timestamp  int64   `parquet:"name=ts, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	RunID      string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Op         string  `parquet:"name=op, type=BYTE_ARRAY, convertedtype=UTF8"`
	Worker     int32   `parquet:"name=worker, type=INT32"`
	ObjectKey  string  `parquet:"name=object_key, type=BYTE_ARRAY, convertedtype=UTF8"`
	Bytes      int64   `parquet:"name=bytes, type=INT64"`
	LatencyMs  float64 `parquet:"name=latency_ms, type=DOUBLE"`
	HTTPStatus int32   `parquet:"name=http_status, type=INT32"`
	ErrMsg     string  `parquet:"name=err_msg, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ExportParquet writes samples to gwbench-<runID>.parquet under dir and
// returns the file path.
func ExportParquet(samples []stats.Sample, runID, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create parquet directory")
	}
	path := filepath.Join(dir, fmt.Sprintf("gwbench-%s.parquet", runID))

	file, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", errors.Wrap(err, "create parquet file")
	}

	pw, err := writer.NewParquetWriter(file, new(sampleRow), 4)
	if err != nil {
		file.Close()
		return "", errors.Wrap(err, "create parquet writer")
	}

	for _, s := range samples {
		row := sampleRow{
			Timestamp:  s.StartUnixMs,
			RunID:      runID,
			Op:         string(s.Op),
			Worker:     int32(s.Worker),
			ObjectKey:  s.Key,
			Bytes:      int64(s.Bytes),
			LatencyMs:  s.LatencyMs,
			HTTPStatus: int32(s.Status),
			ErrMsg:     s.Err,
		}
		if err := pw.Write(row); err != nil {
			file.Close()
			return "", errors.Wrap(err, "write parquet row")
		}
	}

	if err := pw.WriteStop(); err != nil {
		file.Close()
		return "", errors.Wrap(err, "stop parquet writer")
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrap(err, "close parquet file")
	}
	return path, nil
}

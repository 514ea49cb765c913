// internal/publish/record.go
package publish

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/tamzrod/evm-logger/internal/decoder"
)

// The wire record is the publish-boundary contract: a flat mapping of
// timestamp and per-channel value/flags. Field names are load-bearing;
// the encoding (JSON) is the transportable detail.

type channelRecord struct {
	Value *uint32  `json:"value"`
	Flags []string `json:"flags"`
}

type sampleRecord struct {
	TS       string                   `json:"ts"`
	Channels map[string]channelRecord `json:"channels"`
}

// EncodeSample renders one sample as its wire record.
// Absent readings carry a null value; flags are always a list.
func EncodeSample(s decoder.Sample) ([]byte, error) {
	rec := sampleRecord{
		TS:       s.At.UTC().Format(time.RFC3339Nano),
		Channels: make(map[string]channelRecord, len(s.Readings)),
	}
	for ch, r := range s.Readings {
		cr := channelRecord{Flags: r.Flags.Strings()}
		if cr.Flags == nil {
			cr.Flags = []string{}
		}
		if r.Valid {
			v := r.Value
			cr.Value = &v
		}
		rec.Channels[strconv.Itoa(ch)] = cr
	}
	return json.Marshal(rec)
}

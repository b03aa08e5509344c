package accumulate

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/utils"
)

// spillDir is the process-scoped directory holding spillover files. It is
// resolved once; creation failure degrades to the bare temp dir.
var (
	spillDirOnce sync.Once
	spillDirPath string
)

func spillDir() string {
	spillDirOnce.Do(func() {
		dir := filepath.Join(os.TempDir(), "page-engine-"+strconv.FormatInt(time.Now().Unix(), 10))
		if err := os.MkdirAll(dir, 0755); err != nil {
			dir = os.TempDir()
		}
		spillDirPath = dir
	})
	return spillDirPath
}

// Accumulator buffers a streamed response body in memory, optionally
// spilling to a temporary file once the in-memory threshold is crossed, and
// enforcing a global byte cap. One Accumulator serves exactly one fetch.
//
// Every file-system failure degrades to in-memory accumulation: spillover
// is an optimization, never a correctness dependency.
type Accumulator struct {
	targetURL  string
	threshold  int
	maxBytes   int64 // 0 = unlimited
	allowSpill bool
	log        *logrus.Entry

	buf       bytes.Buffer
	file      *os.File
	filePath  string
	total     int64
	truncated bool
	spilled   bool
}

// New creates an Accumulator for one fetch of targetURL. maxBytes of 0 means
// unlimited; threshold is the in-memory capacity before spillover (ignored
// unless allowSpill is set).
func New(targetURL string, maxBytes int64, threshold int, allowSpill bool, log *logrus.Entry) *Accumulator {
	return &Accumulator{
		targetURL:  targetURL,
		threshold:  threshold,
		maxBytes:   maxBytes,
		allowSpill: allowSpill,
		log:        log,
	}
}

// Append adds one chunk. It returns false once the byte cap would be
// exceeded, signalling the caller to stop streaming; the response is
// truncated at the previous chunk boundary, not failed.
func (a *Accumulator) Append(chunk []byte) bool {
	if len(chunk) == 0 {
		return true
	}
	if a.maxBytes > 0 && a.total+int64(len(chunk)) > a.maxBytes {
		a.truncated = true
		return false
	}

	switch {
	case a.file == nil && (!a.allowSpill || a.buf.Len()+len(chunk) <= a.threshold):
		a.buf.Write(chunk)
	case a.file == nil:
		a.spill(chunk)
	default:
		if _, err := a.file.Write(chunk); err != nil {
			a.log.WithField("url", a.targetURL).Warnf("Spillover write failed, keeping chunk in memory: %v", err)
			a.buf.Write(chunk)
		}
	}

	a.total += int64(len(chunk))
	return true
}

// spill moves the buffered content plus the new chunk to a fresh temporary
// file named by percent-encoding the target URL.
func (a *Accumulator) spill(chunk []byte) {
	path := filepath.Join(spillDir(), utils.PercentEncode(a.targetURL))
	f, err := os.Create(path)
	if err != nil {
		a.log.WithField("url", a.targetURL).Warnf("Staying in memory: %v", utils.WrapErrorf(utils.ErrSpillIO, "creating spillover file: %v", err))
		a.buf.Write(chunk)
		return
	}

	a.buf.Write(chunk)
	if _, err := f.Write(a.buf.Bytes()); err != nil {
		// Keep everything buffered; the partial file is discarded in Bytes.
		a.log.WithField("url", a.targetURL).Warnf("Staying in memory: %v", utils.WrapErrorf(utils.ErrSpillIO, "flushing spillover file: %v", err))
		f.Close()
		os.Remove(path)
		return
	}

	a.buf.Reset()
	a.file = f
	a.filePath = path
	a.spilled = true
}

// Bytes finalizes the accumulation and returns one contiguous byte slice.
// If spillover occurred the file is read back fully and deleted. Chunks that
// degraded to memory after a failed file write are appended after the file
// content, preserving order.
func (a *Accumulator) Bytes() []byte {
	if a.file == nil {
		return a.buf.Bytes()
	}

	if err := a.file.Close(); err != nil {
		a.log.WithField("url", a.targetURL).Warnf("Closing spillover file: %v", err)
	}
	data, err := os.ReadFile(a.filePath)
	if err != nil {
		a.log.WithField("url", a.targetURL).Errorf("Reading back spillover file: %v", err)
	}
	if err := os.Remove(a.filePath); err != nil {
		a.log.WithField("url", a.targetURL).Warnf("Removing spillover file: %v", err)
	}
	a.file = nil

	if a.buf.Len() > 0 {
		data = append(data, a.buf.Bytes()...)
	}
	return data
}

// Size reports the total bytes accepted so far.
func (a *Accumulator) Size() int64 { return a.total }

// Truncated reports whether the byte cap cut the accumulation short.
func (a *Accumulator) Truncated() bool { return a.truncated }

// Spilled reports whether the accumulation switched to a temporary file.
func (a *Accumulator) Spilled() bool { return a.spilled }

// ReadFrom streams r through the accumulator in fixed-size chunks until EOF,
// a read error, or the byte cap. The number of accepted bytes is returned;
// read errors end accumulation early but are reported so callers can log.
func (a *Accumulator) ReadFrom(r io.Reader) (int64, error) {
	chunk := make([]byte, 8*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if !a.Append(chunk[:n]) {
				return a.total, nil
			}
		}
		if err == io.EOF {
			return a.total, nil
		}
		if err != nil {
			return a.total, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
		}
	}
}

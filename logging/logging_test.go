package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	lines []string
}

func (r *recorder) Log(msg string) {
	r.lines = append(r.lines, msg)
}

func TestLogWriter(t *testing.T) {
	rec := &recorder{}
	w := NewLogWriter(rec)
	_, _ = w.Write([]byte("first line\nsecond "))
	_, _ = w.Write([]byte("line\npartial"))
	assert.Equal(t, []string{"first line", "second line"}, rec.lines)
	assert.NoError(t, w.Flush())
	assert.Equal(t, []string{"first line", "second line", "partial"}, rec.lines)
}

func TestZerologJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := Zerolog{Logger: NewWithWriter(buf, true, true)}
	l.Log("dial proxy")
	out := buf.String()
	assert.True(t, strings.Contains(out, `"level":"debug"`), out)
	assert.True(t, strings.Contains(out, `"message":"dial proxy"`), out)
}

func TestZerologQuietByDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	l := Zerolog{Logger: NewWithWriter(buf, true, false)}
	l.Log("hidden")
	assert.Empty(t, buf.String())
}

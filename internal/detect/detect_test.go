package detect

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/Meha555/chconv/internal/models"
)

const chineseText = "字符编码转换工具会遍历目录树，识别每个文本文件的字符编码，然后把内容转换成目标编码。" +
	"这是一段足够长的中文文本，用来让统计检测器得到可靠的结果。"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCharsetDetector_EmptyInput(t *testing.T) {
	d, err := NewCharsetDetector()
	require.NoError(t, err)

	cs, err := d.Detect(nil)
	require.NoError(t, err)
	assert.Equal(t, Empty, cs)
}

func TestCharsetDetector_UTF8(t *testing.T) {
	d, err := NewCharsetDetector()
	require.NoError(t, err)

	cs, err := d.Detect([]byte(chineseText))
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", cs)
}

func TestCharsetDetector_GBK(t *testing.T) {
	d, err := NewCharsetDetector()
	require.NoError(t, err)

	gbk, err := simplifiedchinese.GBK.NewEncoder().String(strings.Repeat(chineseText, 4))
	require.NoError(t, err)

	cs, err := d.Detect([]byte(gbk))
	require.NoError(t, err)
	assert.NotEmpty(t, cs)
	assert.NotEqual(t, "UTF-8", cs)
}

func TestCharsetDetector_ResetClearsState(t *testing.T) {
	d, err := NewCharsetDetector()
	require.NoError(t, err)

	d.Feed([]byte{0xff, 0xfe, 0x00, 0x00})
	d.Reset()
	assert.Empty(t, d.Charset(), "no result before finalize")

	d.Feed([]byte(chineseText))
	require.NoError(t, d.Finalize())
	assert.Equal(t, "UTF-8", d.Charset())

	d.Reset()
	assert.Empty(t, d.Charset(), "reset forgets the previous result")
}

func TestCharsetDetector_ReusedAcrossFiles(t *testing.T) {
	d, err := NewCharsetDetector()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		cs, err := d.Detect([]byte(chineseText))
		require.NoError(t, err)
		assert.Equal(t, "UTF-8", cs)

		cs, err = d.Detect(nil)
		require.NoError(t, err)
		assert.Equal(t, Empty, cs)
	}
}

func TestMIMEClassifier_IsText(t *testing.T) {
	c := NewMIMEClassifier()

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"plain ascii", []byte("hello world\n"), true},
		{"utf8 chinese", []byte(chineseText), true},
		{"empty", nil, true},
		{"html", []byte("<!DOCTYPE html><html><body>hi</body></html>"), true},
		{"png header", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), false},
		{"nul bytes", []byte{0x00, 0x01, 0x02, 0x03, 0x00, 0x00}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "f", tt.data)
			got, err := c.IsText(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMIMEClassifier_MissingFile(t *testing.T) {
	c := NewMIMEClassifier()
	_, err := c.IsText(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrClassification))
}

func TestMIMEClassifier_LongFileUsesPrefix(t *testing.T) {
	c := NewMIMEClassifier()
	data := append([]byte(strings.Repeat("a", 2*sniffLen)), 0x00, 0x00)
	path := writeFile(t, "long.txt", data)

	got, err := c.IsText(path)
	require.NoError(t, err)
	assert.True(t, got, "bytes past the sniff window are not considered")
}

func TestNewHandles(t *testing.T) {
	h, err := NewHandles()
	require.NoError(t, err)
	assert.NotNil(t, h.Classifier)
	assert.NotNil(t, h.Detector)
}

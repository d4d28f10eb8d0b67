package emit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/slowlogdef/slowlogdef/internal/aggregate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []aggregate.Row {
	return []aggregate.Row{
		{Fingerprint: "fp1", Samples: 5, TotalTimeS: 10.0, AvgTimeS: 2.0, MaxTimeS: 3.0, MainTable: "orders", TimeSharePct: 80.0},
		{Fingerprint: "fp2", Samples: 1, TotalTimeS: 2.5, AvgTimeS: 2.5, MaxTimeS: 2.5, MainTable: "users", TimeSharePct: 20.0},
	}
}

func TestWriteMarkdownEnglish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, WriteMarkdown(path, sampleRows(), MarkdownOptions{Lang: "en", Top: 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "MySQL Slow Log Summary")
	assert.Contains(t, content, "fp1")
	assert.NotContains(t, content, "fp2", "Top=1 must cap the rendered rows")
}

func TestWriteMarkdownChineseDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, WriteMarkdown(path, sampleRows(), MarkdownOptions{Top: 10}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "MySQL 慢日志汇总")
	assert.Contains(t, content, "fp1")
	assert.Contains(t, content, "fp2")
}

func TestWriteMarkdownEmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, WriteMarkdown(path, nil, MarkdownOptions{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "（无数据）")
}

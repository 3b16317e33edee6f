package finemap

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/craft/indexsnp"
	"github.com/carbocation/craft/locus"
	"github.com/carbocation/craft/sumstats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func testLocus() locus.Locus {
	v := func(rsid string, pos int, n int64) sumstats.Variant {
		return sumstats.Variant{
			RSID: rsid, Chromosome: "3", Position: pos, AlleleA: "A", AlleleB: "G",
			MAF: null.FloatFrom(0.125), Beta: null.FloatFrom(-0.5), SE: null.FloatFrom(0.1),
			AllTotal: null.IntFrom(n),
		}
	}

	return locus.Locus{
		Index:    indexsnp.IndexVariant{Variant: v("rs9", 200, 1000)},
		Variants: []sumstats.Variant{v("rs9", 200, 1000), v("rs8", 100, 1200)},
	}
}

func TestWriteZ(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteZ(&buf, testLocus().Variants))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, ZHeader, lines[0])
	assert.Equal(t, "rs9 3 200 A G 0.125 -0.5 0.1", lines[1])

	err := WriteZ(&buf, []sumstats.Variant{{RSID: "rs1"}})
	assert.Error(t, err)
}

func TestMaster(t *testing.T) {
	m := NewMaster(testLocus(), "rs9", "out", "ld")
	assert.Equal(t, filepath.Join("out", "rs9.z"), m.Z)
	assert.Equal(t, filepath.Join("ld", "rs9.ld"), m.LD)
	assert.Equal(t, int64(1200), m.NSamples)

	var buf bytes.Buffer
	require.NoError(t, WriteMaster(&buf, []Master{m}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, MasterHeader, lines[0])
	assert.Equal(t, len(strings.Split(MasterHeader, ";")), len(strings.Split(lines[1], ";")))
	assert.True(t, strings.HasSuffix(lines[1], ";1200"))
}

func TestPrepare(t *testing.T) {
	dir := t.TempDir()

	master, err := Prepare([]locus.Locus{testLocus()}, dir, "ld")
	require.NoError(t, err)

	body, err := os.ReadFile(master)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), MasterHeader+"\n"))

	z, err := os.ReadFile(filepath.Join(dir, "rs9.z"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(z), "\n"))
}

func TestPrepareRepeatedRSID(t *testing.T) {
	dir := t.TempDir()

	master, err := Prepare([]locus.Locus{testLocus(), testLocus()}, dir, "ld")
	require.NoError(t, err)

	for _, name := range []string{"rs9.z", "rs9_2.z"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	body, err := os.ReadFile(master)
	require.NoError(t, err)
	assert.Contains(t, string(body), filepath.Join("ld", "rs9_2.ld"))
}

const logSSS = `- GWAS summary stats               : out/rs9.z
- SNP correlations                 : ld/rs9.ld
- Causal SNP stats                 : out/rs9.snp

- Number of GWAS samples           : 1200
- Post-Pr(# of causal SNPs is k)   :
  0   ->   0
  1   ->   0.97
- Log10-BF of >= one causal SNP    : 12.4567
- Post-expected # of causal SNPs   : 1.03
`

func TestParseLog10BF(t *testing.T) {
	bf, ok, err := ParseLog10BF(strings.NewReader(logSSS))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12.4567, bf)

	_, ok, err = ParseLog10BF(strings.NewReader("nothing here\n"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseLog10BF(strings.NewReader("- Log10-BF of >= one causal SNP : x\n"))
	assert.Error(t, err)
}

func TestReadLog10BFs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "rs9.log_sss")
	require.NoError(t, os.WriteFile(file, []byte(logSSS), 0644))

	bfs, err := ReadLog10BFs(context.Background(), []string{file}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"rs9": 12.4567}, bfs)
}

func TestAppendLog10BF(t *testing.T) {
	// rs7 has an empty allele cell
	index := "chromosome\trsid\talleleA\tposition\tpvalue\n3\trs9\tA\t200\t1e-10\n3\trs7\t\t9000\t2e-9\n"

	var buf bytes.Buffer
	require.NoError(t, AppendLog10BF(strings.NewReader(index), &buf, map[string]float64{"rs9": 12.4567, "rs7": 3.5}))

	assert.Equal(t,
		"chromosome\trsid\talleleA\tposition\tpvalue\tLog10-BF\n3\trs9\tA\t200\t1e-10\t12.4567\n3\trs7\t\t9000\t2e-9\t3.5\n",
		buf.String())

	buf.Reset()
	require.NoError(t, AppendLog10BF(strings.NewReader("rsid\tpvalue\nrs1\t0.5\n"), &buf, nil))
	assert.Equal(t, "rsid\tpvalue\tLog10-BF\nrs1\t0.5\t0\n", buf.String())

	err := AppendLog10BF(strings.NewReader("a\tb\n1\t2\n"), &buf, nil)
	assert.Error(t, err)
}

func TestRSIDFromLogName(t *testing.T) {
	assert.Equal(t, "rs9", RSIDFromLogName("gs://bucket/out/rs9.log_sss"))
	assert.Equal(t, "rs9", RSIDFromLogName("rs9"))
}

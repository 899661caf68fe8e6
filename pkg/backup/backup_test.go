package backup

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
	"github.com/yomguy/servestream-sub001/pkg/transport"
)

func openStore(t *testing.T) *streamdb.Store {
	t.Helper()
	store, err := streamdb.Open(filepath.Join(t.TempDir(), "streams.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestExportWritesEmptyTagsForNull(t *testing.T) {
	recs := []streamdb.StreamRecord{{
		Nickname:    "Radio",
		Protocol:    "http",
		Hostname:    streamdb.NullString("radio.example"),
		Port:        8000,
		Path:        streamdb.NullString("/live"),
		LastConnect: 1700000000,
	}}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, recs))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<backup>")
	assert.Contains(t, out, "<uri>")
	assert.Contains(t, out, "<nickname>Radio</nickname>")
	assert.Contains(t, out, "<username></username>")
	assert.Contains(t, out, "<port>8000</port>")
	assert.Contains(t, out, "<lastconnect>1700000000</lastconnect>")

	back, err := Import(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Nil(t, back[0].Username)
	assert.Equal(t, "radio.example", streamdb.Deref(back[0].Hostname))
	assert.True(t, recs[0].Selection().Equal(back[0].Selection()))
}

func TestImportIsCaseInsensitive(t *testing.T) {
	input := `<?xml version="1.0"?>
<Backup>
  <URI>
    <NickName>Mixed</NickName>
    <Protocol>HTTP</Protocol>
    <HostName>host.example</HostName>
    <Port>80</Port>
    <Path>/a.mp3</Path>
    <Query/>
  </URI>
</Backup>`
	recs, err := Import(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Mixed", recs[0].Nickname)
	assert.Equal(t, "http", recs[0].Protocol)
	assert.Equal(t, 80, recs[0].Port)
	assert.Nil(t, recs[0].Query)
}

func TestImportJSON(t *testing.T) {
	input := `{"backup":{"uri":[{"nickname":"Old","protocol":"https","hostname":"h.example","port":443,"path":"/s","username":null,"lastconnect":-1}]}}`
	recs, err := Import(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https", recs[0].Protocol)
	assert.Equal(t, 443, recs[0].Port)
	assert.EqualValues(t, -1, recs[0].LastConnect)
}

func TestImportRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "<other/>", "<backup><uri><port>x</port></uri></backup>", "{"} {
		_, err := Import(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrInvalidBackup, input)
	}
}

func TestRestoreSkipsKnownStreams(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	registry := transport.NewRegistry(transport.DefaultOptions())

	existing := transport.URIFromRecord(&streamdb.StreamRecord{
		Protocol: "http", Hostname: streamdb.NullString("radio.example"), Port: 80, Path: streamdb.NullString("/live"),
	})
	tr, u, err := registry.Parse(existing.String())
	require.NoError(t, err)
	_, _, err = store.FindOrCreate(ctx, tr.SelectionArgs(u), func() *streamdb.StreamRecord { return tr.NewStreamRecord(u) })
	require.NoError(t, err)

	input := `<backup>
  <uri><nickname>Same</nickname><protocol>http</protocol><hostname>radio.example</hostname><port>80</port><path>/live</path></uri>
  <uri><nickname>New</nickname><protocol>http</protocol><hostname>other.example</hostname><port></port><path>/x.pls</path><reference>top</reference><lastconnect>42</lastconnect></uri>
  <uri><nickname>Local</nickname><protocol>file</protocol><path>/music/list.m3u</path></uri>
  <uri><nickname>Bad</nickname><protocol>gopher</protocol><hostname>g</hostname></uri>
  <uri><nickname>NoHost</nickname><protocol>http</protocol></uri>
</backup>`
	report, err := Restore(ctx, store, registry, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Report{Restored: 2, Skipped: 1, Invalid: 2}, report)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "New", all[1].Nickname)
	assert.Equal(t, 80, all[1].Port)
	assert.Equal(t, "top", streamdb.Deref(all[1].Reference))
	assert.EqualValues(t, 42, all[1].LastConnect)
	assert.Equal(t, "file", all[2].Protocol)

	again, err := Restore(ctx, store, registry, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, Report{Skipped: 3, Invalid: 2}, again)
}

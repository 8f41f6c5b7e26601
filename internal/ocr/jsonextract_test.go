package ocr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONFromNoisyOutput(t *testing.T) {
	out := []byte("Loading model...\nHere are the doctors I found:\n```json\n" +
		`[{"name":"박지훈","role":"원장"}]` + "\n```\nDone.")
	got := ExtractJSON(out)
	require.JSONEq(t, `[{"name":"박지훈","role":"원장"}]`, string(got))
}

func TestExtractJSONObject(t *testing.T) {
	out := []byte(`The answer is {"doctors":[],"suggested_paths":["/doctor","/about"]} hope that helps`)
	got := ExtractJSON(out)
	require.JSONEq(t, `{"doctors":[],"suggested_paths":["/doctor","/about"]}`, string(got))
}

func TestExtractJSONBracketsInsideStrings(t *testing.T) {
	out := []byte(`[{"name":"김민수","role":"원장 {피부과}"}]`)
	got := ExtractJSON(out)
	require.JSONEq(t, `[{"name":"김민수","role":"원장 {피부과}"}]`, string(got))
}

func TestExtractJSONIncompleteReturnsNil(t *testing.T) {
	require.Nil(t, ExtractJSON([]byte(`thinking... [{"name":"김민수"`)))
	require.Nil(t, ExtractJSON([]byte("no json here at all")))
	require.Nil(t, ExtractJSON(nil))
}

func TestStringListAcceptsStringOrArray(t *testing.T) {
	var rec DoctorRecord
	err := json.Unmarshal([]byte(`{"name":"김민수","education":"서울대학교 의과대학 졸업","career":["인턴 수료","레지던트 수료"]}`), &rec)
	require.NoError(t, err)
	require.Equal(t, StringList{"서울대학교 의과대학 졸업"}, rec.Education)
	require.Equal(t, StringList{"인턴 수료", "레지던트 수료"}, rec.Career)
	require.Nil(t, rec.Credentials)
}

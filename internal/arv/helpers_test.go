package arv_test

import (
	"path/filepath"
	"strconv"
	"testing"

	"arv-go/internal/arv"
	"arv-go/internal/testutil"
)

// archiveFile writes a file with the given content and archives it into
// the named vault ("" = current). It returns the archive id and the
// original path.
func archiveFile(t *testing.T, svc *arv.Service, dir, name, content, vaultRef string) (int64, string) {
	t.Helper()
	src := filepath.Join(dir, name)
	testutil.WriteFile(t, src, []byte(content))
	result, err := svc.Put([]string{src}, vaultRef, "", "")
	if err != nil {
		t.Fatalf("Put(%s) error = %v", name, err)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("Put(%s) failed: %s", name, result.Failed[0].Reason)
	}
	return result.Succeeded[0].ID, src
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func hasIssue(r *arv.Report, code string) bool {
	for _, i := range r.Issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

package backend

import "testing"

func TestClassifyResponse_OKWithNoWriteErrors(t *testing.T) {
	ok, msg, code, codeName := ClassifyResponse(map[string]any{"ok": float64(1)})
	if !ok || msg != "" || code != 0 || codeName != "" {
		t.Fatalf("expected clean success, got ok=%v msg=%q code=%d codeName=%q", ok, msg, code, codeName)
	}
}

func TestClassifyResponse_NonEmptyWriteErrorsFailsEvenWhenOK(t *testing.T) {
	doc := map[string]any{
		"ok": float64(1),
		"writeErrors": []any{
			map[string]any{"errmsg": "duplicate key", "code": float64(11000), "codeName": "DuplicateKey"},
		},
	}
	ok, msg, code, codeName := ClassifyResponse(doc)
	if ok {
		t.Fatalf("expected failure when writeErrors is non-empty")
	}
	if msg != "duplicate key" || code != 11000 || codeName != "DuplicateKey" {
		t.Fatalf("unexpected extraction: msg=%q code=%d codeName=%q", msg, code, codeName)
	}
}

func TestClassifyResponse_WriteConcernErrorFails(t *testing.T) {
	doc := map[string]any{
		"ok":                float64(1),
		"writeConcernError": map[string]any{"errmsg": "timed out", "code": float64(64)},
	}
	ok, msg, code, _ := ClassifyResponse(doc)
	if ok || msg != "timed out" || code != 64 {
		t.Fatalf("expected writeConcernError to fail classification, got ok=%v msg=%q code=%d", ok, msg, code)
	}
}

func TestClassifyResponse_OKZeroFails(t *testing.T) {
	doc := map[string]any{"ok": float64(0), "errmsg": "no such collection", "code": float64(26), "codeName": "NamespaceNotFound"}
	ok, msg, code, codeName := ClassifyResponse(doc)
	if ok {
		t.Fatalf("expected ok=0 to fail classification")
	}
	if msg != "no such collection" || code != 26 || codeName != "NamespaceNotFound" {
		t.Fatalf("unexpected extraction: msg=%q code=%d codeName=%q", msg, code, codeName)
	}
}

func TestFormatFailure_MatchesFixedTemplate(t *testing.T) {
	got := FormatFailure("insert", 2, "boom", 11000, "DuplicateKey")
	want := "command 'insert' failed at index 2: boom (code=11000, codeName=DuplicateKey)"
	if got != want {
		t.Fatalf("FormatFailure = %q, want %q", got, want)
	}
}

func TestNormalizeReferenceResponse_CountDocumentsFromDirectN(t *testing.T) {
	out := NormalizeReferenceResponse("countDocuments", map[string]any{"n": int32(5), "ok": float64(1)})
	if out["n"] != int32(5) || out["count"] != int32(5) {
		t.Fatalf("unexpected normalization: %+v", out)
	}
}

func TestNormalizeReferenceResponse_CountDocumentsFromCursorFirstBatch(t *testing.T) {
	doc := map[string]any{
		"cursor": map[string]any{
			"firstBatch": []any{
				map[string]any{"n": int32(7)},
			},
		},
		"ok": float64(1),
	}
	out := NormalizeReferenceResponse("countDocuments", doc)
	if out["n"] != int32(7) || out["count"] != int32(7) {
		t.Fatalf("unexpected normalization: %+v", out)
	}
}

func TestNormalizeReferenceResponse_NonCountDocumentsUntouched(t *testing.T) {
	doc := map[string]any{"ok": float64(1), "n": int32(3)}
	out := NormalizeReferenceResponse("insert", doc)
	if len(out) != 2 {
		t.Fatalf("expected non-countDocuments response untouched, got %+v", out)
	}
}

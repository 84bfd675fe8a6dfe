package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tush00nka/filehub/internal/model"
	"tush00nka/filehub/internal/pubsub"
	"tush00nka/filehub/internal/testutil"
)

type fileFixture struct {
	svc     *fileService
	repo    *testutil.FileRepo
	storage *testutil.Storage
	broker  *pubsub.MemoryBroker
}

func newFileFixture(t *testing.T) *fileFixture {
	t.Helper()
	repo := &testutil.FileRepo{}
	st := testutil.NewStorage()
	broker := pubsub.NewMemoryBroker(testutil.DiscardLogger())
	t.Cleanup(func() { _ = broker.Close() })

	svc := NewFileService(repo, st, broker, testutil.DiscardLogger()).(*fileService)
	return &fileFixture{svc: svc, repo: repo, storage: st, broker: broker}
}

var alice = &model.User{ID: "alice-id", Email: "alice@example.com"}

func TestStorageKey(t *testing.T) {
	key := StorageKey("u-1", "../../etc/passwd")
	assert.True(t, strings.HasPrefix(key, "u-1/"), key)
	assert.True(t, strings.HasSuffix(key, "-passwd"), key)
	assert.NotContains(t, strings.TrimPrefix(key, "u-1/"), "/")
}

func TestUpload_UsesBackendSize(t *testing.T) {
	f := newFileFixture(t)
	f.storage.ReportSize = 4096

	file, err := f.svc.Upload(context.Background(), alice, UploadInput{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("tiny"),
	})
	require.NoError(t, err)

	assert.EqualValues(t, 4096, file.Size)
	assert.Equal(t, "report.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.Mimetype)
	assert.Equal(t, alice.ID, file.UserID)
	assert.True(t, strings.HasPrefix(file.Key, alice.ID+"/"))

	stored, err := f.repo.FindByID(context.Background(), file.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, stored.Size)
}

func TestUpload_PublishesEvent(t *testing.T) {
	f := newFileFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := f.svc.SubscribeUploads(ctx, alice.ID)
	require.NoError(t, err)

	file, err := f.svc.Upload(ctx, alice, UploadInput{Filename: "a.txt", Body: strings.NewReader("abc")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", file.Mimetype)

	select {
	case got := <-events:
		assert.Equal(t, file.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("no upload event")
	}
}

func TestUpload_StorageFailure(t *testing.T) {
	f := newFileFixture(t)
	f.storage.UploadErr = testutil.ErrBoom

	_, err := f.svc.Upload(context.Background(), alice, UploadInput{Filename: "a.txt", Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, testutil.ErrBoom)
	assert.Empty(t, f.repo.Files)
}

func TestUpload_MetadataFailureRemovesObject(t *testing.T) {
	f := newFileFixture(t)
	f.repo.CreateErr = testutil.ErrBoom

	_, err := f.svc.Upload(context.Background(), alice, UploadInput{Filename: "a.txt", Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, testutil.ErrBoom)
	assert.Len(t, f.storage.Deleted, 1)
	assert.Empty(t, f.storage.Objects)
}

func TestUpload_Validation(t *testing.T) {
	f := newFileFixture(t)

	_, err := f.svc.Upload(context.Background(), alice, UploadInput{Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Upload(context.Background(), nil, UploadInput{Filename: "a", Body: strings.NewReader("abc")})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMetrics_TotalsAndDays(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	days := []time.Time{
		time.Date(2024, 1, 2, 23, 30, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
		// 2024-01-05 22:30 UTC, local midnight already passed in UTC+3
		time.Date(2024, 1, 6, 1, 30, 0, 0, time.FixedZone("MSK", 3*3600)),
	}
	sizes := []int64{10, 20, 30, 40, 50}

	for i, day := range days {
		day := day
		f.svc.now = func() time.Time { return day }
		f.storage.ReportSize = sizes[i]
		_, err := f.svc.Upload(ctx, alice, UploadInput{Filename: "f.bin", Body: strings.NewReader("x")})
		require.NoError(t, err)
	}
	// Someone else's file must not count
	_, err := f.svc.Upload(ctx, &model.User{ID: "bob-id"}, UploadInput{Filename: "b.bin", Body: strings.NewReader("x")})
	require.NoError(t, err)

	m, err := f.svc.Metrics(ctx, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, m.TotalFiles)
	assert.EqualValues(t, 150, m.TotalStorage)
	assert.Equal(t, []model.DailyUploadCount{
		{Date: "2024-01-01", Count: 1},
		{Date: "2024-01-02", Count: 2},
		{Date: "2024-01-05", Count: 2},
	}, m.UploadsPerDay)

	sum := 0
	for _, d := range m.UploadsPerDay {
		sum += d.Count
	}
	assert.Equal(t, m.TotalFiles, sum)
}

func TestMetrics_Empty(t *testing.T) {
	f := newFileFixture(t)

	m, err := f.svc.Metrics(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Zero(t, m.TotalFiles)
	assert.Zero(t, m.TotalStorage)
	assert.NotNil(t, m.UploadsPerDay)
	assert.Empty(t, m.UploadsPerDay)
}

func TestListByUser_NewestFirst(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	first, err := f.svc.Upload(ctx, alice, UploadInput{Filename: "1.txt", Body: strings.NewReader("1")})
	require.NoError(t, err)
	second, err := f.svc.Upload(ctx, alice, UploadInput{Filename: "2.txt", Body: strings.NewReader("2")})
	require.NoError(t, err)

	files, err := f.svc.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, second.ID, files[0].ID)
	assert.Equal(t, first.ID, files[1].ID)

	none, err := f.svc.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
}

func TestDelete_OwnerOnly(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	file, err := f.svc.Upload(ctx, alice, UploadInput{Filename: "a.txt", Body: strings.NewReader("abc")})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, "bob-id", file.ID), ErrFileNotFound)
	require.NoError(t, f.svc.Delete(ctx, alice.ID, file.ID))
	assert.Empty(t, f.storage.Objects)
	assert.ErrorIs(t, f.svc.Delete(ctx, alice.ID, file.ID), ErrFileNotFound)
}

func TestDelete_MalformedIDIsNotFound(t *testing.T) {
	f := newFileFixture(t)
	f.repo.FindErr = testutil.ErrBoom

	err := f.svc.Delete(context.Background(), alice.ID, "abc")
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Empty(t, f.storage.Deleted)
}

func TestURL(t *testing.T) {
	f := newFileFixture(t)
	url, err := f.svc.URL(context.Background(), &model.File{Key: "u/k.txt"})
	require.NoError(t, err)
	assert.Equal(t, "http://storage.test/uploads/u/k.txt", url)
}

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/dossierdb/dossier/domain"
)

var ctx = context.Background()

type M = map[string]any

type engineMock struct{ mock.Mock }

// Open implements [domain.Engine].
func (e *engineMock) Open(ctx context.Context, path string, mode domain.OpenMode) error {
	return e.Called(ctx, path, mode).Error(0)
}

// Close implements [domain.Engine].
func (e *engineMock) Close(ctx context.Context) error {
	return e.Called(ctx).Error(0)
}

// IsOpen implements [domain.Engine].
func (e *engineMock) IsOpen() bool {
	return e.Called().Bool(0)
}

// EnsureCollection implements [domain.Engine].
func (e *engineMock) EnsureCollection(ctx context.Context, name string, options *domain.CollectionOptions) error {
	return e.Called(ctx, name, options).Error(0)
}

// RemoveCollection implements [domain.Engine].
func (e *engineMock) RemoveCollection(ctx context.Context, name string, prune bool) error {
	return e.Called(ctx, name, prune).Error(0)
}

// Save implements [domain.Engine].
func (e *engineMock) Save(ctx context.Context, name string, docs []domain.M) ([]string, error) {
	call := e.Called(ctx, name, docs)
	ids, _ := call.Get(0).([]string)
	return ids, call.Error(1)
}

// Load implements [domain.Engine].
func (e *engineMock) Load(ctx context.Context, name string, id string) (domain.M, error) {
	call := e.Called(ctx, name, id)
	doc, _ := call.Get(0).(domain.M)
	return doc, call.Error(1)
}

// Remove implements [domain.Engine].
func (e *engineMock) Remove(ctx context.Context, name string, id string) error {
	return e.Called(ctx, name, id).Error(0)
}

// Query implements [domain.Engine].
func (e *engineMock) Query(ctx context.Context, name string, req domain.Request, mode domain.QueryMode) (domain.Result, error) {
	call := e.Called(ctx, name, req, mode)
	res, _ := call.Get(0).(domain.Result)
	return res, call.Error(1)
}

// SetIndex implements [domain.Engine].
func (e *engineMock) SetIndex(ctx context.Context, name string, path string, flags domain.IndexFlag) error {
	return e.Called(ctx, name, path, flags).Error(0)
}

// Sync implements [domain.Engine].
func (e *engineMock) Sync(ctx context.Context) error {
	return e.Called(ctx).Error(0)
}

// cursorFake is an engine cursor that counts its closes, so tests can pin
// down the exactly-one-close contract.
type cursorFake struct {
	docs    []domain.M
	n       int
	iterErr error
	closes  int
}

func (c *cursorFake) Next() bool {
	if c.n >= len(c.docs) {
		return false
	}
	c.n++
	return true
}

func (c *cursorFake) Document() domain.M {
	if c.n == 0 || c.n > len(c.docs) {
		return nil
	}
	return c.docs[c.n-1]
}

func (c *cursorFake) Err() error { return c.iterErr }

func (c *cursorFake) Close() error {
	c.closes++
	if c.closes > 1 {
		return domain.ErrClosedCursor{}
	}
	return nil
}

type DatabaseTestSuite struct {
	suite.Suite
	e *engineMock
	d domain.DB
}

func (s *DatabaseTestSuite) SetupTest() {
	s.e = new(engineMock)
	d, err := NewDatabase(WithEngine(s.e))
	s.Require().NoError(err)
	s.d = d
}

func (s *DatabaseTestSuite) SetupSubTest() {
	s.SetupTest()
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

// lastQuery returns the request and mode of the most recent engine query.
func (s *DatabaseTestSuite) lastQuery() (domain.Request, domain.QueryMode) {
	s.Require().NotEmpty(s.e.Calls)
	call := s.e.Calls[len(s.e.Calls)-1]
	s.Require().Equal("Query", call.Method)
	return call.Arguments.Get(2).(domain.Request), call.Arguments.Get(3).(domain.QueryMode)
}

func (s *DatabaseTestSuite) TestNewDatabaseRequiresEngine() {
	_, err := NewDatabase()
	s.ErrorAs(err, &domain.ErrInvalidArgument{})
}

func (s *DatabaseTestSuite) TestSessionForwarding() {
	s.e.On("Open", ctx, "/tmp/x.db", domain.OpenReader).Return(nil)
	s.NoError(s.d.Open(ctx, "/tmp/x.db", domain.OpenReader))

	s.e.On("IsOpen").Return(true)
	s.True(s.d.IsOpen())

	s.e.On("Sync", ctx).Return(nil)
	s.NoError(s.d.Sync(ctx))

	s.e.On("Close", ctx).Return(nil)
	s.NoError(s.d.Close(ctx))

	s.e.AssertExpectations(s.T())
}

func (s *DatabaseTestSuite) TestEnsureCollection() {
	s.Run("WithoutOptions", func() {
		s.e.On("EnsureCollection", ctx, "books", (*domain.CollectionOptions)(nil)).Return(nil)
		s.NoError(s.d.EnsureCollection(ctx, "books"))
		s.e.AssertExpectations(s.T())
	})

	s.Run("WithOptions", func() {
		want := &domain.CollectionOptions{
			Large:           true,
			Compressed:      true,
			ExpectedRecords: 100000,
			CachedRecords:   512,
		}
		s.e.On("EnsureCollection", ctx, "books", want).Return(nil)
		s.NoError(s.d.EnsureCollection(ctx, "books",
			domain.WithCollectionLarge(true),
			domain.WithCollectionCompressed(true),
			domain.WithCollectionExpectedRecords(100000),
			domain.WithCollectionCachedRecords(512),
		))
		s.e.AssertExpectations(s.T())
	})

	s.Run("EmptyName", func() {
		s.ErrorAs(s.d.EnsureCollection(ctx, ""), &domain.ErrInvalidArgument{})
		s.Empty(s.e.Calls)
	})
}

func (s *DatabaseTestSuite) TestRemoveCollection() {
	s.e.On("RemoveCollection", ctx, "books", true).Return(nil)
	s.NoError(s.d.RemoveCollection(ctx, "books", true))
	s.e.AssertExpectations(s.T())

	s.ErrorAs(s.d.RemoveCollection(ctx, "", false), &domain.ErrInvalidArgument{})
}

func (s *DatabaseTestSuite) TestSave() {
	s.Run("WritesIDsBackToMaps", func() {
		s.e.On("Save", ctx, "books", mock.Anything).Return([]string{"id1", "id2"}, nil)

		first := M{"title": "one"}
		second := M{"title": "two"}
		ids, err := s.d.Save(ctx, "books", first, second)
		s.NoError(err)
		s.Equal([]string{"id1", "id2"}, ids)
		s.Equal("id1", first["_id"])
		s.Equal("id2", second["_id"])
	})

	s.Run("FirstIDWinsOnRepeatedMap", func() {
		s.e.On("Save", ctx, "books", mock.Anything).Return([]string{"id1", "id2"}, nil)

		doc := M{"title": "one"}
		_, err := s.d.Save(ctx, "books", doc, doc)
		s.NoError(err)
		s.Equal("id1", doc["_id"])
	})

	s.Run("ParsesStructDocs", func() {
		type book struct {
			Title string `dossier:"title"`
		}
		s.e.On("Save", ctx, "books", []domain.M{{"title": "parsed"}}).Return([]string{"id1"}, nil)

		ids, err := s.d.Save(ctx, "books", book{Title: "parsed"})
		s.NoError(err)
		s.Equal([]string{"id1"}, ids)
		s.e.AssertExpectations(s.T())
	})

	s.Run("CopiesMapsBeforeHandingOff", func() {
		s.e.On("Save", ctx, "books", []domain.M{{"title": "one"}}).Return([]string{"id1"}, nil)

		doc := M{"title": "one"}
		_, err := s.d.Save(ctx, "books", doc)
		s.NoError(err)

		sent := s.e.Calls[0].Arguments.Get(2).([]domain.M)
		s.NotContains(sent[0], "_id")
		s.Equal("id1", doc["_id"])
	})

	s.Run("NoDocsNoCall", func() {
		ids, err := s.d.Save(ctx, "books")
		s.NoError(err)
		s.Nil(ids)
		s.Empty(s.e.Calls)
	})

	s.Run("RejectsNonObjectDocs", func() {
		_, err := s.d.Save(ctx, "books", 42)
		s.ErrorAs(err, &domain.ErrInvalidArgument{})
		s.Empty(s.e.Calls)
	})

	s.Run("EmptyName", func() {
		_, err := s.d.Save(ctx, "", M{"a": 1})
		s.ErrorAs(err, &domain.ErrInvalidArgument{})
		s.Empty(s.e.Calls)
	})

	s.Run("EngineError", func() {
		boom := errors.New("boom")
		s.e.On("Save", ctx, "books", mock.Anything).Return(nil, boom)

		doc := M{"title": "one"}
		_, err := s.d.Save(ctx, "books", doc)
		s.ErrorIs(err, boom)
		s.NotContains(doc, "_id")
	})
}

func (s *DatabaseTestSuite) TestLoad() {
	s.Run("Forwarded", func() {
		want := domain.M{"_id": "id1", "title": "one"}
		s.e.On("Load", ctx, "books", "id1").Return(want, nil)

		doc, err := s.d.Load(ctx, "books", "id1")
		s.NoError(err)
		s.Equal(want, doc)
	})

	s.Run("AbsentIsNotAnError", func() {
		s.e.On("Load", ctx, "books", "missing").Return(nil, nil)

		doc, err := s.d.Load(ctx, "books", "missing")
		s.NoError(err)
		s.Nil(doc)
	})

	s.Run("EmptyArguments", func() {
		_, err := s.d.Load(ctx, "", "id1")
		s.ErrorAs(err, &domain.ErrInvalidArgument{})
		_, err = s.d.Load(ctx, "books", "")
		s.ErrorAs(err, &domain.ErrInvalidArgument{})
		s.Empty(s.e.Calls)
	})
}

func (s *DatabaseTestSuite) TestRemove() {
	s.e.On("Remove", ctx, "books", "id1").Return(nil)
	s.NoError(s.d.Remove(ctx, "books", "id1"))
	s.e.AssertExpectations(s.T())

	s.ErrorAs(s.d.Remove(ctx, "books", ""), &domain.ErrInvalidArgument{})
	s.ErrorAs(s.d.Remove(ctx, "", "id1"), &domain.ErrInvalidArgument{})
}

func (s *DatabaseTestSuite) TestFindRequestNormalization() {
	find := func(query any, options ...domain.QueryOption) {
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).Return(domain.Result{}, nil).Once()
		_, err := s.d.Find(ctx, "books", query, options...)
		s.Require().NoError(err)
	}

	s.Run("NilQueryMatchesAll", func() {
		find(nil)
		req, mode := s.lastQuery()
		s.Equal(domain.Request{Predicate: domain.M{}, Or: []domain.M{}}, req)
		s.Equal(domain.QueryMode(0), mode)
	})

	s.Run("NonObjectQueryCoercesToEmpty", func() {
		find(42)
		req, _ := s.lastQuery()
		s.Equal(domain.M{}, req.Predicate)

		find("not a predicate")
		req, _ = s.lastQuery()
		s.Equal(domain.M{}, req.Predicate)
	})

	s.Run("StructQueryIsParsed", func() {
		type query struct {
			Author string `dossier:"author"`
		}
		find(query{Author: "hugo"})
		req, _ := s.lastQuery()
		s.Equal(domain.M{"author": "hugo"}, req.Predicate)
	})

	s.Run("OperatorsForwardedVerbatim", func() {
		find(M{"pages": M{"$gt": 100}, "name": M{"$begin": "go"}})
		req, _ := s.lastQuery()
		s.Equal(domain.M{
			"pages": domain.M{"$gt": 100},
			"name":  domain.M{"$begin": "go"},
		}, req.Predicate)
	})

	s.Run("TypedAndRawHintsBuildTheSameRequest", func() {
		find(M{"a": 1},
			domain.WithLimit(5),
			domain.WithSkip(2),
			domain.WithSort(domain.SortKey{Field: "name", Desc: true}),
			domain.WithFields("name"),
		)
		typed, _ := s.lastQuery()

		find(M{"a": 1},
			domain.WithHint("$max", 5),
			domain.WithHint("$skip", 2.0),
			domain.WithHint("$orderby", M{"name": -1}),
			domain.WithHint("$fields", M{"name": 1}),
		)
		raw, _ := s.lastQuery()

		s.Equal(typed, raw)
		s.Equal(int64(5), raw.Hints.Max)
		s.Equal(int64(2), raw.Hints.Skip)
		s.Equal([]domain.SortKey{{Field: "name", Desc: true}}, raw.Hints.OrderBy)
		s.Equal([]string{"name"}, raw.Hints.Fields)
	})

	s.Run("TypedOptionWinsOverRawHint", func() {
		find(nil, domain.WithLimit(3), domain.WithHint("$max", 9))
		req, _ := s.lastQuery()
		s.Equal(int64(3), req.Hints.Max)
	})

	s.Run("MapOrderByAppliesSortedByField", func() {
		find(nil, domain.WithHint("$orderby", M{"b": -1, "a": 1, "c": -2.5}))
		req, _ := s.lastQuery()
		s.Equal([]domain.SortKey{
			{Field: "a"},
			{Field: "b", Desc: true},
			{Field: "c", Desc: true},
		}, req.Hints.OrderBy)
	})

	s.Run("MalformedHintsAreDropped", func() {
		find(nil,
			domain.WithHint("$max", "not a number"),
			domain.WithHint("$orderby", 42),
			domain.WithHint("$fields", true),
		)
		req, _ := s.lastQuery()
		s.Zero(req.Hints.Max)
		s.Empty(req.Hints.OrderBy)
		s.Empty(req.Hints.Fields)
	})

	s.Run("UnknownHintsPassThrough", func() {
		find(nil, domain.WithHint("$explain", true))
		req, _ := s.lastQuery()
		s.Equal(domain.M{"$explain": true}, req.Hints.Extra)
	})

	s.Run("OrPredicates", func() {
		type query struct {
			B int `dossier:"b"`
		}
		find(M{"a": 1}, domain.WithOr(M{"b": 2}, nil, query{B: 3}))
		req, _ := s.lastQuery()
		s.Equal([]domain.M{{"b": 2}, {"b": 3}}, req.Or)
	})

	s.Run("CountOnlyMode", func() {
		find(nil, domain.WithCountOnly())
		_, mode := s.lastQuery()
		s.Equal(domain.QueryCountOnly, mode)

		find(nil, domain.WithHint("$onlycount", true))
		_, mode = s.lastQuery()
		s.Equal(domain.QueryCountOnly, mode)
	})

	s.Run("EmptyName", func() {
		_, err := s.d.Find(ctx, "", nil)
		s.ErrorAs(err, &domain.ErrInvalidArgument{})
		s.Empty(s.e.Calls)
	})
}

func (s *DatabaseTestSuite) TestFindCursor() {
	s.Run("IteratesInOrder", func() {
		fake := &cursorFake{docs: []domain.M{{"n": 1}, {"n": 2}}}
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Cursor: fake, Count: 2}, nil)

		cur, err := s.d.Find(ctx, "books", nil)
		s.Require().NoError(err)
		s.Equal(int64(2), cur.Count())

		var got []domain.M
		for cur.Next() {
			got = append(got, cur.Document())
		}
		s.NoError(cur.Err())
		s.Equal([]domain.M{{"n": 1}, {"n": 2}}, got)

		s.NoError(cur.Close())
		s.Equal(1, fake.closes)
		s.ErrorIs(cur.Close(), domain.ErrClosedCursor{})
		s.Equal(1, fake.closes)
	})

	s.Run("ScanDecodesCurrentDocument", func() {
		type book struct {
			Title string `dossier:"title"`
			Pages int    `dossier:"pages"`
		}
		fake := &cursorFake{docs: []domain.M{{"title": "one", "pages": 12}}}
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Cursor: fake, Count: 1}, nil)

		cur, err := s.d.Find(ctx, "books", nil)
		s.Require().NoError(err)
		defer cur.Close()

		var b book
		s.Error(cur.Scan(&b))

		s.True(cur.Next())
		s.NoError(cur.Scan(&b))
		s.Equal(book{Title: "one", Pages: 12}, b)
	})

	s.Run("CountOnlyResultHasNoRecords", func() {
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Count: 7}, nil)

		cur, err := s.d.Find(ctx, "books", nil, domain.WithCountOnly())
		s.Require().NoError(err)
		s.False(cur.Next())
		s.Nil(cur.Document())
		s.Equal(int64(7), cur.Count())
		s.NoError(cur.Err())
		s.NoError(cur.Close())
		s.ErrorIs(cur.Close(), domain.ErrClosedCursor{})
	})

	s.Run("EngineError", func() {
		boom := errors.New("boom")
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{}, boom)

		_, err := s.d.Find(ctx, "books", nil)
		s.ErrorIs(err, boom)
	})
}

func (s *DatabaseTestSuite) TestFindOne() {
	s.Run("ReturnsFirstMatchAndReleasesCursor", func() {
		fake := &cursorFake{docs: []domain.M{{"n": 1}, {"n": 2}}}
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Cursor: fake, Count: 2}, nil)

		doc, err := s.d.FindOne(ctx, "books", nil)
		s.NoError(err)
		s.Equal(domain.M{"n": 1}, doc)
		s.Equal(1, fake.closes)
	})

	s.Run("CapsResultAtOne", func() {
		fake := &cursorFake{docs: []domain.M{{"n": 1}}}
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Cursor: fake, Count: 1}, nil)

		_, err := s.d.FindOne(ctx, "books", nil, domain.WithLimit(10), domain.WithCountOnly())
		s.NoError(err)

		req, mode := s.lastQuery()
		s.Equal(int64(1), req.Hints.Max)
		s.Equal(domain.QueryMode(0), mode)
	})

	s.Run("NoMatchYieldsNilWithoutError", func() {
		fake := &cursorFake{}
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Cursor: fake}, nil)

		doc, err := s.d.FindOne(ctx, "books", M{"missing": true})
		s.NoError(err)
		s.Nil(doc)
		s.Equal(1, fake.closes)
	})

	s.Run("IterationError", func() {
		boom := errors.New("boom")
		fake := &cursorFake{iterErr: boom}
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Cursor: fake}, nil)

		_, err := s.d.FindOne(ctx, "books", nil)
		s.ErrorIs(err, boom)
		s.Equal(1, fake.closes)
	})

	s.Run("EngineError", func() {
		boom := errors.New("boom")
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{}, boom)

		_, err := s.d.FindOne(ctx, "books", nil)
		s.ErrorIs(err, boom)
	})
}

func (s *DatabaseTestSuite) TestCount() {
	s.Run("AlwaysCountOnlyMode", func() {
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Count: 12}, nil)

		n, err := s.d.Count(ctx, "books", M{"a": 1})
		s.NoError(err)
		s.Equal(int64(12), n)

		_, mode := s.lastQuery()
		s.Equal(domain.QueryCountOnly, mode)
	})

	s.Run("ReleasesStrayCursor", func() {
		fake := &cursorFake{docs: []domain.M{{"n": 1}}}
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Cursor: fake, Count: 1}, nil)

		n, err := s.d.Count(ctx, "books", nil)
		s.NoError(err)
		s.Equal(int64(1), n)
		s.Equal(1, fake.closes)
	})

	s.Run("EngineError", func() {
		boom := errors.New("boom")
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{}, boom)

		n, err := s.d.Count(ctx, "books", nil)
		s.ErrorIs(err, boom)
		s.Zero(n)
	})
}

func (s *DatabaseTestSuite) TestUpdate() {
	s.Run("YieldsCountAndLog", func() {
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Count: 3, Log: "updated 3"}, nil)

		n, log, err := s.d.Update(ctx, "books", M{"$set": M{"done": true}})
		s.NoError(err)
		s.Equal(int64(3), n)
		s.Equal("updated 3", log)

		req, mode := s.lastQuery()
		s.Equal(domain.QueryCountOnly, mode)
		s.Equal(domain.M{"$set": domain.M{"done": true}}, req.Predicate)
	})

	s.Run("CountAndLogSurviveErrors", func() {
		boom := errors.New("boom")
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Count: 1, Log: "partial"}, boom)

		n, log, err := s.d.Update(ctx, "books", nil)
		s.ErrorIs(err, boom)
		s.Equal(int64(1), n)
		s.Equal("partial", log)
	})

	s.Run("ReleasesStrayCursor", func() {
		fake := &cursorFake{}
		s.e.On("Query", ctx, "books", mock.Anything, mock.Anything).
			Return(domain.Result{Cursor: fake, Count: 2}, nil)

		_, _, err := s.d.Update(ctx, "books", nil)
		s.NoError(err)
		s.Equal(1, fake.closes)
	})
}

func (s *DatabaseTestSuite) TestIndexOperations() {
	type indexOp = func(domain.DB) func(context.Context, string, string) error

	cases := []struct {
		name  string
		op    indexOp
		flags domain.IndexFlag
	}{
		{"EnsureStringIndex", func(d domain.DB) func(context.Context, string, string) error { return d.EnsureStringIndex }, domain.IndexString},
		{"RebuildStringIndex", func(d domain.DB) func(context.Context, string, string) error { return d.RebuildStringIndex }, domain.IndexString | domain.IndexRebuild},
		{"DropStringIndex", func(d domain.DB) func(context.Context, string, string) error { return d.DropStringIndex }, domain.IndexString | domain.IndexDrop},
		{"EnsureIStringIndex", func(d domain.DB) func(context.Context, string, string) error { return d.EnsureIStringIndex }, domain.IndexIString},
		{"RebuildIStringIndex", func(d domain.DB) func(context.Context, string, string) error { return d.RebuildIStringIndex }, domain.IndexIString | domain.IndexRebuild},
		{"DropIStringIndex", func(d domain.DB) func(context.Context, string, string) error { return d.DropIStringIndex }, domain.IndexIString | domain.IndexDrop},
		{"EnsureNumberIndex", func(d domain.DB) func(context.Context, string, string) error { return d.EnsureNumberIndex }, domain.IndexNumber},
		{"RebuildNumberIndex", func(d domain.DB) func(context.Context, string, string) error { return d.RebuildNumberIndex }, domain.IndexNumber | domain.IndexRebuild},
		{"DropNumberIndex", func(d domain.DB) func(context.Context, string, string) error { return d.DropNumberIndex }, domain.IndexNumber | domain.IndexDrop},
		{"EnsureArrayIndex", func(d domain.DB) func(context.Context, string, string) error { return d.EnsureArrayIndex }, domain.IndexArray},
		{"RebuildArrayIndex", func(d domain.DB) func(context.Context, string, string) error { return d.RebuildArrayIndex }, domain.IndexArray | domain.IndexRebuild},
		{"DropArrayIndex", func(d domain.DB) func(context.Context, string, string) error { return d.DropArrayIndex }, domain.IndexArray | domain.IndexDrop},
		{"DropIndexes", func(d domain.DB) func(context.Context, string, string) error { return d.DropIndexes }, domain.IndexDropAll},
		{"OptimizeIndexes", func(d domain.DB) func(context.Context, string, string) error { return d.OptimizeIndexes }, domain.IndexOptimize},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			op := tc.op(s.d)
			s.e.On("SetIndex", ctx, "books", "author.name", tc.flags).Return(nil)
			s.NoError(op(ctx, "books", "author.name"))
			s.e.AssertExpectations(s.T())

			s.ErrorAs(op(ctx, "", "author.name"), &domain.ErrInvalidArgument{})
			s.ErrorAs(op(ctx, "books", ""), &domain.ErrInvalidArgument{})
			s.Len(s.e.Calls, 1)
		})
	}
}

package domain_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/dossierdb/dossier/domain"
)

type DomainTestSuite struct {
	suite.Suite
}

func (s *DomainTestSuite) TestQueryOptions() {
	var qos domain.QueryOptions
	qo := []domain.QueryOption{
		domain.WithOr(domain.M{"a": 1}, domain.M{"b": 2}),
		domain.WithLimit(3),
		domain.WithSkip(4),
		domain.WithSort(domain.SortKey{Field: "a", Desc: true}),
		domain.WithOrderBy("b", false),
		domain.WithFields("a", "b.c"),
		domain.WithCountOnly(),
		domain.WithHint("$custom", 5),
	}
	for _, opt := range qo {
		opt(&qos)
	}
	s.Equal(domain.QueryOptions{
		Or:    []any{domain.M{"a": 1}, domain.M{"b": 2}},
		Limit: 3,
		Skip:  4,
		Sort: []domain.SortKey{
			{Field: "a", Desc: true},
			{Field: "b", Desc: false},
		},
		Fields:    []string{"a", "b.c"},
		CountOnly: true,
		Hints:     domain.M{"$custom": 5},
	}, qos)
}

func (s *DomainTestSuite) TestCollectionOptions() {
	var cos domain.CollectionOptions
	co := []domain.CollectionOption{
		domain.WithCollectionLarge(true),
		domain.WithCollectionCompressed(true),
		domain.WithCollectionExpectedRecords(100_000),
		domain.WithCollectionCachedRecords(512),
	}
	for _, opt := range co {
		opt(&cos)
	}
	s.Equal(domain.CollectionOptions{
		Large:           true,
		Compressed:      true,
		ExpectedRecords: 100_000,
		CachedRecords:   512,
	}, cos)
}

func (s *DomainTestSuite) TestIndexFlagComposition() {
	s.Equal(domain.IndexFlag(0b10001000), domain.IndexIString|domain.IndexRebuild)
	flags := []domain.IndexFlag{
		domain.IndexDrop, domain.IndexDropAll, domain.IndexOptimize,
		domain.IndexRebuild, domain.IndexNumber, domain.IndexString,
		domain.IndexArray, domain.IndexIString,
	}
	for i, a := range flags {
		for j, b := range flags {
			if i == j {
				continue
			}
			s.Zero(a&b, "flags %b and %b overlap", a, b)
		}
	}
}

func (s *DomainTestSuite) TestOpenModeComposition() {
	s.Equal(domain.OpenMode(0b0110), domain.OpenDefault)
	s.Zero(domain.OpenReader & domain.OpenWriter)
	s.Zero(domain.OpenCreate & domain.OpenTruncate)
}

func (s *DomainTestSuite) TestErrorMessages() {
	var e error

	e = domain.ErrInvalidArgument{Arg: "cname", Reason: "must not be empty"}
	s.Equal("invalid argument cname: must not be empty", e.Error())

	e = domain.ErrNotOpen{}
	s.Equal("database is not open", e.Error())

	e = domain.ErrAlreadyOpen{}
	s.Equal("database is already open", e.Error())

	e = domain.ErrReadOnly{Op: "save"}
	s.Equal("save: database is opened read-only", e.Error())

	e = domain.ErrClosedCursor{}
	s.Equal("cursor is closed", e.Error())

	e = domain.ErrBadSnapshot{Path: "a.db", Reason: "bad magic"}
	s.Equal("snapshot a.db: bad magic", e.Error())

	e = domain.ErrSnapshotVersion{Version: 9}
	s.Equal("unsupported snapshot version 9", e.Error())

	e = domain.ErrTargetNil{}
	s.Equal("target interface is nil", e.Error())

	e = domain.ErrNonPointer{}
	s.Equal("target must be a pointer", e.Error())

	e = domain.ErrDecode{Source: domain.M{}, Target: "a"}
	s.Equal("cannot decode map[string]interface {} into string", e.Error())
}

func TestDomainTestSuite(t *testing.T) {
	suite.Run(t, new(DomainTestSuite))
}

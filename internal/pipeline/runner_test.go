package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sirene/internal/fragment"
	"sirene/internal/load"
	"sirene/internal/notify"
	"sirene/internal/pipeline"
	"sirene/internal/refdata"
	"sirene/internal/schema"
)

const legalHeader = "siren,denominationUniteLegale,categorieJuridiqueUniteLegale," +
	"etatAdministratifUniteLegale,trancheEffectifsUniteLegale," +
	"dateCreationUniteLegale,activitePrincipaleUniteLegale," +
	"nomenclatureActivitePrincipaleUniteLegale"

func legalCSV(rows int) string {
	var b strings.Builder
	b.WriteString(legalHeader + "\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%09d,COMPANY %d,5499,A,12,1962-01-01,62.01Z,NAFRev2\n", 100000000+i, i)
	}
	return b.String()
}

// stubArchive writes a canned stock file into the data dir on Ensure.
type stubArchive struct {
	dir     string
	content string
	calls   int
}

func (a *stubArchive) Ensure(_ context.Context, filename string) (string, error) {
	a.calls++
	path := filepath.Join(a.dir, strings.TrimSuffix(filename, ".zip")+".csv")
	if err := os.WriteFile(path, []byte(a.content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// recordingMessenger captures every report.
type recordingMessenger struct {
	titles     []string
	texts      []string
	severities []notify.Severity
	err        error
}

func (m *recordingMessenger) Send(_ context.Context, title, text string, severity notify.Severity) error {
	m.titles = append(m.titles, title)
	m.texts = append(m.texts, text)
	m.severities = append(m.severities, severity)
	return m.err
}

// failingStore delegates to a MemoryStore until the configured call, which
// fails.
type failingStore struct {
	*load.MemoryStore
	failOn int
	calls  int
}

func (s *failingStore) LoadLegalUnits(ctx context.Context, t *schema.Table, mode load.StageMode) error {
	s.calls++
	if s.calls == s.failOn {
		return &load.Error{Op: "organisation upsert", Err: fmt.Errorf("connection reset")}
	}
	return s.MemoryStore.LoadLegalUnits(ctx, t, mode)
}

type RunnerSuite struct {
	suite.Suite

	ctx       context.Context
	dir       string
	store     *load.MemoryStore
	messenger *recordingMessenger
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

func (s *RunnerSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
	codes, err := refdata.Codes()
	s.Require().NoError(err)
	s.store = load.NewMemoryStore(codes)
	s.messenger = &recordingMessenger{}
}

func (s *RunnerSuite) newRunner(archive pipeline.ArchiveSource, store load.Store, limit int) *pipeline.Runner {
	r, err := pipeline.NewRunner(archive, store, s.dir,
		pipeline.WithMessenger(s.messenger),
		pipeline.WithFragmentLimit(limit))
	s.Require().NoError(err)
	return r
}

func (s *RunnerSuite) TestRunProcessesAllFragments() {
	archive := &stubArchive{dir: s.dir, content: legalCSV(5)}
	runner := s.newRunner(archive, s.store, 2)

	report, err := runner.Run(s.ctx, pipeline.LegalUnits("StockUniteLegale_utf8"))
	s.Require().NoError(err)

	s.Equal(3, report.Fragments)
	s.Equal(5, report.Rows)
	s.NotZero(report.RunID)
	s.Equal(5, s.store.OrganisationCount())

	// Every committed fragment file is gone.
	leftovers, err := fragment.List(s.dir, "StockUniteLegale")
	s.Require().NoError(err)
	s.Empty(leftovers)

	s.Require().Len(s.messenger.severities, 1)
	s.Equal(notify.SeverityPass, s.messenger.severities[0])
	s.Contains(s.messenger.texts[0], "3 fragments")
	s.Equal(pipeline.StateIdle, runner.State())
}

func (s *RunnerSuite) TestRunAbortsOnFirstFragmentFailure() {
	archive := &stubArchive{dir: s.dir, content: legalCSV(5)}
	store := &failingStore{MemoryStore: s.store, failOn: 2}
	runner := s.newRunner(archive, store, 2)

	_, err := runner.Run(s.ctx, pipeline.LegalUnits("StockUniteLegale_utf8"))
	s.Require().Error(err)

	var runErr *pipeline.RunError
	s.Require().ErrorAs(err, &runErr)
	s.Equal("legal_units", runErr.Dataset)
	s.NotEmpty(runErr.Fragment)

	var loadErr *load.Error
	s.Require().ErrorAs(err, &loadErr)

	// The first fragment was committed before the abort.
	s.Equal(2, s.store.OrganisationCount())

	// The failed and unconsumed fragments stay on disk for the next run.
	leftovers, listErr := fragment.List(s.dir, "StockUniteLegale")
	s.Require().NoError(listErr)
	s.Len(leftovers, 2)

	s.Require().Len(s.messenger.severities, 1)
	s.Equal(notify.SeverityFail, s.messenger.severities[0])
	s.Equal(pipeline.StateIdle, runner.State())
}

func (s *RunnerSuite) TestRunResumesFromLeftoverFragments() {
	// Seed two leftover fragments; the archive source must not be touched.
	for i, rows := range []int{2, 3} {
		name := fmt.Sprintf("2026-08-01-StockUniteLegale_utf8_%d.csv", i+1)
		require.NoError(s.T(), os.WriteFile(filepath.Join(s.dir, name), []byte(legalCSV(rows)), 0o644))
	}
	archive := &stubArchive{dir: s.dir, content: legalCSV(99)}
	runner := s.newRunner(archive, s.store, 50000)

	report, err := runner.Run(s.ctx, pipeline.LegalUnits("StockUniteLegale_utf8"))
	s.Require().NoError(err)

	s.Zero(archive.calls)
	s.Equal(2, report.Fragments)
	s.Equal(5, report.Rows)
}

func (s *RunnerSuite) TestAggregateNafCountsAfterLegalRun() {
	fixed := time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC)
	archive := &stubArchive{dir: s.dir, content: legalCSV(3)}
	runner, err := pipeline.NewRunner(archive, s.store, s.dir,
		pipeline.WithMessenger(s.messenger),
		pipeline.WithFragmentLimit(50000),
		pipeline.WithClock(func() time.Time { return fixed }))
	s.Require().NoError(err)

	_, err = runner.Run(s.ctx, pipeline.LegalUnits("StockUniteLegale_utf8"))
	s.Require().NoError(err)

	s.Require().NoError(runner.AggregateNafCounts(s.ctx))

	n, ok := s.store.NafCodeCount("62.01Z", "2026-08-01")
	s.Require().True(ok)
	s.Equal(3, n)
}

func (s *RunnerSuite) TestEstablishmentRunSkipsClosedAddresses() {
	header := "siren,siret,etatAdministratifEtablissement,etablissementSiege," +
		"numeroVoieEtablissement,indiceRepetitionEtablissement," +
		"complementAdresseEtablissement,typeVoieEtablissement," +
		"libelleVoieEtablissement,codePostalEtablissement,libelleCommuneEtablissement"
	open := "542012031,54201203100018,A,true,12,B,,RUE,DE LA PAIX,75002,PARIS"
	closed := "542012031,54201203100026,F,false,3,,,RUE,VIVIENNE,75002,PARIS"
	archive := &stubArchive{dir: s.dir, content: header + "\n" + open + "\n" + closed + "\n"}
	runner := s.newRunner(archive, s.store, 50000)

	report, err := runner.Run(s.ctx, pipeline.Establishments("StockEtablissement_utf8"))
	s.Require().NoError(err)

	// The closed establishment is dropped before key derivation.
	s.Equal(1, report.Rows)
	s.Equal(1, s.store.EstablishmentCount())
	s.Equal(1, s.store.GeoLocationCount())

	etab, ok := s.store.Establishment("54201203100018")
	s.Require().True(ok)
	s.Equal("12 B", etab["address_line_1"])
	s.Equal("HEAD_OFFICE", etab["registered_office_type"])

	_, ok = s.store.Establishment("54201203100026")
	s.False(ok)
}

func (s *RunnerSuite) TestMessengerFailureDoesNotFailTheRun() {
	s.messenger.err = fmt.Errorf("webhook unreachable")
	archive := &stubArchive{dir: s.dir, content: legalCSV(1)}
	runner := s.newRunner(archive, s.store, 50000)

	_, err := runner.Run(s.ctx, pipeline.LegalUnits("StockUniteLegale_utf8"))
	s.NoError(err)
}

func (s *RunnerSuite) TestRunReportsRetrievalFailure() {
	runner := s.newRunner(failingArchive{}, s.store, 50000)

	_, err := runner.Run(s.ctx, pipeline.LegalUnits("StockUniteLegale_utf8"))
	s.Require().Error(err)

	var runErr *pipeline.RunError
	s.Require().ErrorAs(err, &runErr)
	s.Empty(runErr.Fragment)

	s.Require().Len(s.messenger.severities, 1)
	s.Equal(notify.SeverityFail, s.messenger.severities[0])
}

type failingArchive struct{}

func (failingArchive) Ensure(context.Context, string) (string, error) {
	return "", fmt.Errorf("archive endpoint returned 404")
}

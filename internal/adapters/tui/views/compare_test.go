package views

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsync/internal/adapters/sqlite"
	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

type fakeCatalog map[domain.Layer]map[int][]domain.ItemRecord

func (c fakeCatalog) LoadItems(_ context.Context, layer domain.Layer, parentID int) ([]domain.ItemRecord, error) {
	if layer == domain.LayerSubject {
		parentID = domain.NoID
	}
	return c[layer][parentID], nil
}

func (c fakeCatalog) LoadItem(_ context.Context, layer domain.Layer, id int) (domain.Row, error) {
	for _, recs := range c[layer] {
		for _, r := range recs {
			if r.ID == id {
				return r.Row, nil
			}
		}
	}
	return domain.NewRow(layer), nil
}

func (c fakeCatalog) CountChildren(_ context.Context, layer domain.Layer, id int) (int, error) {
	return len(c[layer.Child()][id]), nil
}

func record(layer domain.Layer, id int, fields ...string) domain.ItemRecord {
	return domain.ItemRecord{ID: id, Row: domain.NewRow(layer, fields...), KnowledgeTypeID: domain.NoID}
}

type fakeSearcher map[string][]domain.Candidate

func (s fakeSearcher) Search(_ context.Context, q domain.CandidateQuery) ([]domain.Candidate, error) {
	return s[q.Text], nil
}

func newTestSession(t *testing.T) *application.Session {
	t.Helper()
	ctx := context.Background()

	store := sqlite.NewStore()
	require.NoError(t, store.Open(filepath.Join(t.TempDir(), "sync.db")))
	t.Cleanup(func() { store.Close() })
	sk, err := store.CatalogID(ctx, "sk")
	require.NoError(t, err)
	cz, err := store.CatalogID(ctx, "cz")
	require.NoError(t, err)

	source := fakeCatalog{
		domain.LayerSubject: {domain.NoID: {record(domain.LayerSubject, 1, "Maths")}},
		domain.LayerPackage: {1: {
			record(domain.LayerPackage, 11, "Maths", "Algebra"),
			record(domain.LayerPackage, 12, "Maths", "Geometry"),
		}},
	}
	target := fakeCatalog{
		domain.LayerSubject: {domain.NoID: {record(domain.LayerSubject, 100, "Mathematics")}},
		domain.LayerPackage: {100: {
			record(domain.LayerPackage, 110, "Mathematics", "Algebra I"),
			record(domain.LayerPackage, 120, "Mathematics", "Geometry"),
		}},
	}
	searcher := fakeSearcher{"Geometry": {{ID: 120, Score: 0.8}}}

	pairs := application.NewPairStore(store, sk, cz, nil)
	return application.NewSession(source, target, pairs, application.NewMatcher(pairs, searcher), nil)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// settle feeds the result of cmd back into m until no command is left and
// returns the last message that was not consumed by m
func settle(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Msg {
	t.Helper()
	var last tea.Msg
	for range 10 {
		if cmd == nil {
			return last
		}
		msg := cmd()
		switch msg.(type) {
		case SwitchToProposalMsg, SwitchToHelpMsg, ProposalDoneMsg, tea.QuitMsg:
			return msg
		}
		last = msg
		_, cmd = m.Update(msg)
	}
	t.Fatal("commands did not settle")
	return nil
}

func press(t *testing.T, m tea.Model, key tea.KeyMsg) tea.Msg {
	t.Helper()
	_, cmd := m.Update(key)
	return settle(t, m, cmd)
}

func newLoadedCompare(t *testing.T) (*CompareModel, *application.Session) {
	t.Helper()
	session := newTestSession(t)
	m := NewCompareModel(session, "sk", "cz")
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	settle(t, m, m.Init())
	require.NotNil(t, m.view)
	return m, session
}

func TestCompare_InitListsSubjects(t *testing.T) {
	m, _ := newLoadedCompare(t)

	assert.Equal(t, domain.LayerSubject, m.view.Layer)
	require.Len(t, m.view.Source, 1)
	assert.Equal(t, 1, m.view.Source[0].ID)
	assert.Equal(t, domain.NoID, m.view.Target[0].ID)
	assert.Contains(t, m.View(), "Maths")
	assert.Contains(t, m.View(), "sk")
}

func TestCompare_ManualPairThenNavigate(t *testing.T) {
	m, session := newLoadedCompare(t)

	press(t, m, runes("m"))
	require.NotNil(t, m.pick)
	assert.Contains(t, m.View(), "Mathematics")

	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.pick)
	assert.False(t, m.MessageErr, m.Message)
	assert.Equal(t, 100, m.view.Target[0].ID)

	peer, err := session.Pairs().GetSynchronizedID(context.Background(), domain.LayerSubject, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 100, peer)

	press(t, m, runes("l"))
	assert.Equal(t, domain.LayerPackage, m.view.Layer)
	assert.Equal(t, []string{"Maths"}, m.crumbs)
	require.Len(t, m.view.Source, 2)

	press(t, m, runes("h"))
	assert.Equal(t, domain.LayerSubject, m.view.Layer)
	assert.Empty(t, m.crumbs)
}

func TestCompare_PickNeedsPairedParent(t *testing.T) {
	m, _ := newLoadedCompare(t)

	press(t, m, runes("l"))
	require.Equal(t, domain.LayerPackage, m.view.Layer)

	press(t, m, runes("m"))
	assert.Nil(t, m.pick)
	assert.True(t, m.MessageErr)
	assert.Contains(t, m.Message, "not synchronized")
}

func TestCompare_SyncOpensProposal(t *testing.T) {
	m, session := newLoadedCompare(t)
	require.NoError(t, session.SavePair(context.Background(), domain.LayerSubject, domain.NoID, 1, 100))

	press(t, m, runes("l"))
	msg := press(t, m, runes("s"))

	sw, ok := msg.(SwitchToProposalMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, application.StatusProposed, sw.Proposal.Status)
	assert.Equal(t, 1, sw.Proposal.NewMatches)
	assert.Equal(t, 1, sw.ParentID)
	assert.Same(t, sw.Proposal, session.Pending())
}

func TestCompare_SyncOnSubjectsIsRefused(t *testing.T) {
	m, _ := newLoadedCompare(t)

	msg := press(t, m, runes("s"))
	assert.Nil(t, msg)
	assert.True(t, m.MessageErr)
}

func TestCompare_SyncWithoutPairedSubject(t *testing.T) {
	m, session := newLoadedCompare(t)

	press(t, m, runes("l"))
	press(t, m, runes("s"))

	assert.Equal(t, application.StatusUnsyncedAncestor.String(), m.Message)
	assert.Nil(t, session.Pending())
}

func TestCompare_UnpairAndCopy(t *testing.T) {
	m, session := newLoadedCompare(t)
	require.NoError(t, session.SavePair(context.Background(), domain.LayerSubject, domain.NoID, 1, 100))
	settle(t, m, m.Reload())

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { copyToClipboard = orig })

	press(t, m, runes("y"))
	assert.Equal(t, "1\t100", copied)

	press(t, m, runes("d"))
	assert.Equal(t, domain.NoID, m.view.Target[0].ID)
	assert.Equal(t, "Unpaired Subject 1", m.Message)
}

func TestCompare_SwitchRoles(t *testing.T) {
	m, _ := newLoadedCompare(t)

	press(t, m, runes("r"))
	assert.Equal(t, [2]string{"cz", "sk"}, m.names)
	require.Len(t, m.view.Source, 1)
	assert.Equal(t, 100, m.view.Source[0].ID)
	assert.Contains(t, m.Message, "cz")
}

func TestCompare_HelpAndQuit(t *testing.T) {
	m, _ := newLoadedCompare(t)

	assert.IsType(t, SwitchToHelpMsg{}, press(t, m, runes("?")))
	assert.IsType(t, tea.QuitMsg{}, press(t, m, runes("q")))
}

func TestProposal_ToggleAndConfirm(t *testing.T) {
	m, session := newLoadedCompare(t)
	require.NoError(t, session.SavePair(context.Background(), domain.LayerSubject, domain.NoID, 1, 100))
	press(t, m, runes("l"))
	sw := press(t, m, runes("s")).(SwitchToProposalMsg)

	p := NewProposalModel(session, sw.Proposal, sw.ParentID)
	p.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, p.View(), "[x]")

	press(t, p, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, p.MessageErr, "unmatched rows cannot be toggled")

	press(t, p, runes("j"))
	press(t, p, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, sw.Proposal.Matches[1].Accepted)
	press(t, p, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, sw.Proposal.Matches[1].Accepted)

	done, ok := press(t, p, tea.KeyMsg{Type: tea.KeyEnter}).(ProposalDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "Saved 1 pair(s)", done.Message)
	assert.Nil(t, session.Pending())

	peer, err := session.Pairs().GetSynchronizedID(context.Background(), domain.LayerPackage, 12, false)
	require.NoError(t, err)
	assert.Equal(t, 120, peer)
}

func TestProposal_Discard(t *testing.T) {
	m, session := newLoadedCompare(t)
	require.NoError(t, session.SavePair(context.Background(), domain.LayerSubject, domain.NoID, 1, 100))
	press(t, m, runes("l"))
	sw := press(t, m, runes("s")).(SwitchToProposalMsg)

	p := NewProposalModel(session, sw.Proposal, sw.ParentID)
	done, ok := press(t, p, tea.KeyMsg{Type: tea.KeyEsc}).(ProposalDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "Proposal discarded", done.Message)
	assert.Nil(t, session.Pending())
}

func TestPaginatorKeepsCursorVisible(t *testing.T) {
	p := NewPaginator(3)
	p.SetTotal(7)
	for range 4 {
		p.CursorDown()
	}
	start, end := p.VisibleRange()
	assert.Equal(t, 4, p.Cursor())
	assert.LessOrEqual(t, start, 4)
	assert.Greater(t, end, 4)

	p.SetTotal(2)
	assert.Equal(t, 1, p.Cursor())
}

func TestFit(t *testing.T) {
	assert.Equal(t, "abc  ", fit("abc", 5))
	assert.Equal(t, "ab…", fit("abcdef", 3))
	assert.Equal(t, "", fit("abc", 0))
}

// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vyatta-confd/engine/commit"
	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

func newTestSession(t *testing.T, opts ...SessionOption) (*Session, *datastore.Datastore) {
	models := yangmodel.NewModelSet()
	running := datastore.New("running", filepath.Join(t.TempDir(), "running.db"), models, nil, datastore.FormatXML, zerolog.Nop())
	engine := commit.NewEngine(models, nil, zerolog.Nop())
	sess, err := NewSession("sess-1", running, engine, models, nil, zerolog.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(sess.Close)
	return sess, running
}

func TestEditConfigMergesIntoOwnCandidateOnly(t *testing.T) {
	sess, running := newTestSession(t)

	patch := tree.NewRoot("config")
	tree.New("hostname", patch, tree.Element)
	require.NoError(t, sess.EditConfig(nil, "", patch))

	got, err := sess.GetConfig(nil, "", datastore.DefaultsReportAll)
	require.NoError(t, err)
	require.NotNil(t, got.Child("hostname"))

	runningRoot, err := running.Root()
	require.NoError(t, err)
	require.Nil(t, runningRoot.Child("hostname"), "edit-config against the candidate must not touch running")
}

func TestCommitAppliesCandidateToRunning(t *testing.T) {
	sess, running := newTestSession(t)

	patch := tree.NewRoot("config")
	tree.New("hostname", patch, tree.Element)
	require.NoError(t, sess.EditConfig(nil, "", patch))
	require.NoError(t, sess.Commit("test commit"))

	runningRoot, err := running.Root()
	require.NoError(t, err)
	require.NotNil(t, runningRoot.Child("hostname"))
}

func TestDiscardChangesRevertsCandidateToRunning(t *testing.T) {
	sess, _ := newTestSession(t)

	patch := tree.NewRoot("config")
	tree.New("hostname", patch, tree.Element)
	require.NoError(t, sess.EditConfig(nil, "", patch))

	require.NoError(t, sess.DiscardChanges())

	got, err := sess.GetConfig(nil, "", datastore.DefaultsReportAll)
	require.NoError(t, err)
	require.Nil(t, got.Child("hostname"))
}

func TestValidateDoesNotCommit(t *testing.T) {
	sess, running := newTestSession(t)

	patch := tree.NewRoot("config")
	tree.New("hostname", patch, tree.Element)
	require.NoError(t, sess.EditConfig(nil, "", patch))
	require.NoError(t, sess.Validate())

	runningRoot, err := running.Root()
	require.NoError(t, err)
	require.Nil(t, runningRoot.Child("hostname"))
}

func TestLockExcludesAnotherSession(t *testing.T) {
	models := yangmodel.NewModelSet()
	running := datastore.New("running", filepath.Join(t.TempDir(), "running.db"), models, nil, datastore.FormatXML, zerolog.Nop())
	engine := commit.NewEngine(models, nil, zerolog.Nop())

	a, err := NewSession("a", running, engine, models, nil, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSession("b", running, engine, models, nil, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Lock(running))
	require.Error(t, b.Lock(running))
	require.NoError(t, a.Unlock(running))
	require.NoError(t, b.Lock(running))
}

type fakeStateProvider struct {
	name string
}

func (p *fakeStateProvider) StateData(xp string, at *tree.Node) (*tree.Node, bool, error) {
	sub := tree.NewRoot("config")
	leaf := tree.New(p.name, sub, tree.Element)
	tree.New("", leaf, tree.Body).Value = "up"
	return sub, true, nil
}

func TestGetMergesStateDataProviderContribution(t *testing.T) {
	sess, _ := newTestSession(t, WithStateDataProvider(&fakeStateProvider{name: "link-state"}))

	got, warns, err := sess.Get("", datastore.DefaultsReportAll)
	require.NoError(t, err)
	require.Empty(t, warns)
	require.NotNil(t, got.Child("link-state"))
}

func TestGetConfigNeverSeesProviderStateData(t *testing.T) {
	sess, _ := newTestSession(t, WithStateDataProvider(&fakeStateProvider{name: "link-state"}))

	got, err := sess.GetConfig(nil, "", datastore.DefaultsReportAll)
	require.NoError(t, err)
	require.Nil(t, got.Child("link-state"))
}

type fakeRPCHandler struct{ name string }

func (h *fakeRPCHandler) RPC(name string, input *tree.Node) (*tree.Node, error) {
	if name != h.name {
		return nil, nil
	}
	out := tree.NewRoot("output")
	tree.New("result", out, tree.Element)
	return out, nil
}

func TestRPCDispatchesToRegisteredHandler(t *testing.T) {
	sess, _ := newTestSession(t, WithRPCHandler(&fakeRPCHandler{name: "reboot"}))

	out, err := sess.RPC("reboot", tree.NewRoot("input"))
	require.NoError(t, err)
	require.NotNil(t, out.Child("result"))

	_, err = sess.RPC("unknown-rpc", tree.NewRoot("input"))
	require.Error(t, err)
}

func TestCloseTerminatesSessionRequests(t *testing.T) {
	models := yangmodel.NewModelSet()
	running := datastore.New("running", filepath.Join(t.TempDir(), "running.db"), models, nil, datastore.FormatXML, zerolog.Nop())
	engine := commit.NewEngine(models, nil, zerolog.Nop())
	sess, err := NewSession("sess-close", running, engine, models, nil, zerolog.Nop())
	require.NoError(t, err)

	sess.Close()

	_, err = sess.GetConfig(nil, "", datastore.DefaultsReportAll)
	require.ErrorIs(t, err, errSessionTerminated)
}

func TestCommitConfirmedRevertsAfterTimeoutUnlessConfirmed(t *testing.T) {
	models := yangmodel.NewModelSet()
	running := datastore.New("running", filepath.Join(t.TempDir(), "running.db"), models, nil, datastore.FormatXML, zerolog.Nop())
	engine := commit.NewEngine(models, nil, zerolog.Nop())
	cc := commit.NewConfirmedCommit(engine, running, zerolog.Nop())
	engine.Register(cc)

	sess, err := NewSession("sess-confirmed", running, engine, models, nil, zerolog.Nop(), WithConfirmedCommit(cc))
	require.NoError(t, err)
	defer sess.Close()

	patch := tree.NewRoot("config")
	tree.New("hostname", patch, tree.Element)
	require.NoError(t, sess.EditConfig(nil, "", patch))
	require.NoError(t, sess.CommitConfirmed("confirmed", 30*time.Millisecond))

	runningRoot, err := running.Root()
	require.NoError(t, err)
	require.NotNil(t, runningRoot.Child("hostname"), "commit itself must still apply immediately")

	require.Eventually(t, func() bool {
		root, err := running.Root()
		require.NoError(t, err)
		return root.Child("hostname") == nil
	}, time.Second, 10*time.Millisecond, "unconfirmed commit must auto-revert once the timeout elapses")
}

func TestConfirmCommitCancelsAutoRevert(t *testing.T) {
	models := yangmodel.NewModelSet()
	running := datastore.New("running", filepath.Join(t.TempDir(), "running.db"), models, nil, datastore.FormatXML, zerolog.Nop())
	engine := commit.NewEngine(models, nil, zerolog.Nop())
	cc := commit.NewConfirmedCommit(engine, running, zerolog.Nop())
	engine.Register(cc)

	sess, err := NewSession("sess-confirmed", running, engine, models, nil, zerolog.Nop(), WithConfirmedCommit(cc))
	require.NoError(t, err)
	defer sess.Close()

	patch := tree.NewRoot("config")
	tree.New("hostname", patch, tree.Element)
	require.NoError(t, sess.EditConfig(nil, "", patch))
	require.NoError(t, sess.CommitConfirmed("confirmed", 30*time.Millisecond))
	require.NoError(t, sess.ConfirmCommit())

	time.Sleep(100 * time.Millisecond)

	runningRoot, err := running.Root()
	require.NoError(t, err)
	require.NotNil(t, runningRoot.Child("hostname"), "a confirmed commit must not be reverted once confirmed")
}

func TestCommitConfirmedWithoutPluginIsUnsupported(t *testing.T) {
	sess, _ := newTestSession(t)
	require.Error(t, sess.CommitConfirmed("confirmed", time.Second))
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	sess, _ := newTestSession(t)
	ch, cancel := sess.CreateSubscription("config-change")
	defer cancel()

	go sess.Publish(Notification{Stream: "config-change", Event: tree.NewRoot("event")})

	select {
	case n := <-ch:
		require.Equal(t, "config-change", n.Stream)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published notification")
	}
}

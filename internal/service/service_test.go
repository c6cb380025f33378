package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/model"
	"prizetalk/internal/pkg"
	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/policy"
	"prizetalk/internal/repository/rdb"
	"prizetalk/internal/repository/rdb/rdbtest"
	"prizetalk/internal/service"
)

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	require.Error(t, err)
	return apperr.KindOf(err)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"fiction", "award"}, service.NormalizeTags([]string{"Fiction", " Award "}))
	assert.Equal(t, []string{"a"}, service.NormalizeTags([]string{"", " ", "A", "a "}))
	assert.Empty(t, service.NormalizeTags(nil))
	assert.Equal(t, []string{"drama"}, service.NormalizeTags([]string{"<b>Drama</b>", "drama"}))
	assert.Equal(t, []string{"fiction", "award"}, service.SplitTags("fiction, Award,,"))
	assert.Nil(t, service.SplitTags(""))
}

func TestTextFieldsAreStoredAsPlainText(t *testing.T) {
	assert.Equal(t, []string{"r&b", "rock 'n' roll", "award"},
		service.NormalizeTags([]string{"R&B", "Rock 'n' Roll", " Award "}))

	db := rdbtest.Open(t)
	ctx := context.Background()
	u := rdbtest.User(t, db, "critic", policy.RoleUser)
	posts := service.NewPostService(db, zap.NewNop())

	created, err := posts.Create(ctx, u.ID, service.CreatePostInput{
		CategoryID: rdbtest.Category(t, db),
		Title:      `Tom & Jerry's "best" <3`,
		Content:    "a < b && c > d",
		Tags:       []string{"R&B"},
	})
	require.NoError(t, err)
	assert.Equal(t, `Tom & Jerry's "best" <3`, created.Title)
	assert.Equal(t, "a &lt; b &amp;&amp; c &gt; d", created.Content, "bodies are stored as sanitized HTML")
	assert.Equal(t, []string{"r&b"}, created.Tags)

	list, err := posts.List(ctx, 0, service.ListPostsInput{Tags: service.SplitTags("R&B")})
	require.NoError(t, err)
	require.Len(t, list, 1)

	auth := service.NewAuthService(db, service.AuthOptions{Tokens: pkg.NewTokenIssuer("s", time.Minute)}, zap.NewNop())
	acct, _, err := auth.Signup(ctx, service.SignupInput{
		FirstName: "Siobhan", LastName: "O'Brien", Email: "siobhan@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Siobhan O'Brien", acct.Username)
	assert.Equal(t, "O'Brien", acct.LastName)
}

func TestPostCreateNormalizesTagsAndFilters(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	u := rdbtest.User(t, db, "writer", policy.RoleUser)
	posts := service.NewPostService(db, zap.NewNop())

	created, err := posts.Create(ctx, u.ID, service.CreatePostInput{
		CategoryID: rdbtest.Category(t, db),
		Title:      "Booker longlist",
		Content:    "<p>thoughts</p><script>alert(1)</script>",
		Tags:       []string{"Fiction", " Award "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fiction", "award"}, created.Tags)
	assert.NotContains(t, created.Content, "<script>")
	assert.Equal(t, "writer", created.Username)

	list, err := posts.List(ctx, 0, service.ListPostsInput{Tags: service.SplitTags("fiction,award")})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestPostCreateValidation(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	u := rdbtest.User(t, db, "writer", policy.RoleUser)
	posts := service.NewPostService(db, zap.NewNop())

	_, err := posts.Create(ctx, u.ID, service.CreatePostInput{Title: "t", Content: "c"})
	assert.Equal(t, apperr.Validation, kindOf(t, err))

	_, err = posts.Create(ctx, u.ID, service.CreatePostInput{CategoryID: 999, Title: "t", Content: "c"})
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestPostListFollowingNeedsViewer(t *testing.T) {
	db := rdbtest.Open(t)
	posts := service.NewPostService(db, zap.NewNop())
	_, err := posts.List(context.Background(), 0, service.ListPostsInput{Following: true})
	assert.Equal(t, apperr.Authentication, kindOf(t, err))
}

func TestDeletePostAuthorization(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	author := rdbtest.User(t, db, "author", policy.RoleUser)
	other := rdbtest.User(t, db, "other", policy.RoleModerator)
	staff := rdbtest.User(t, db, "staff", policy.RoleStaffAdmin)
	posts := service.NewPostService(db, zap.NewNop())

	created, err := posts.Create(ctx, author.ID, service.CreatePostInput{
		CategoryID: rdbtest.Category(t, db), Title: "t", Content: "c",
	})
	require.NoError(t, err)

	for _, actor := range []uint64{author.ID, other.ID} {
		err = posts.Delete(ctx, actor, created.ID)
		assert.Equal(t, apperr.Authorization, kindOf(t, err))
	}
	_, err = posts.Get(ctx, created.ID)
	require.NoError(t, err, "post remains after forbidden deletes")

	require.NoError(t, posts.Delete(ctx, staff.ID, created.ID))
	_, err = posts.Get(ctx, created.ID)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))

	err = posts.Delete(ctx, staff.ID, created.ID)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestRoleReassignmentIsSeenImmediately(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	author := rdbtest.User(t, db, "author", policy.RoleUser)
	promoted := rdbtest.User(t, db, "promoted", policy.RoleUser)
	staff := rdbtest.User(t, db, "staff", policy.RoleStaffAdmin)
	roles := service.NewRoleService(db, zap.NewNop())
	posts := service.NewPostService(db, zap.NewNop())

	created, err := posts.Create(ctx, author.ID, service.CreatePostInput{
		CategoryID: rdbtest.Category(t, db), Title: "t", Content: "c",
	})
	require.NoError(t, err)

	_, err = roles.Assign(ctx, promoted.ID, author.ID, policy.RoleStaffAdmin)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))
	_, err = roles.Assign(ctx, staff.ID, promoted.ID, "wizard")
	assert.Equal(t, apperr.Validation, kindOf(t, err))

	_, err = roles.Assign(ctx, staff.ID, promoted.ID, policy.RoleStaffAdmin)
	require.NoError(t, err)
	require.NoError(t, posts.Delete(ctx, promoted.ID, created.ID))
}

func TestRoleHistory(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	user := rdbtest.User(t, db, "user", policy.RoleUser)
	staff := rdbtest.User(t, db, "staff", policy.RoleStaffAdmin)
	roles := service.NewRoleService(db, zap.NewNop())

	_, err := roles.History(ctx, user.ID, staff.ID)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))
	_, err = roles.History(ctx, staff.ID, 99999)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))

	_, err = roles.Assign(ctx, staff.ID, user.ID, policy.RoleModerator)
	require.NoError(t, err)
	rows, err := roles.History(ctx, staff.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, policy.RoleModerator, rows[0].Role)
	assert.Equal(t, policy.RoleUser, rows[1].Role)
}

func TestFollowService(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	a := rdbtest.User(t, db, "a", policy.RoleUser)
	b := rdbtest.User(t, db, "b", policy.RoleUser)
	follows := service.NewFollowService(db, zap.NewNop())

	_, err := follows.Toggle(ctx, a.ID, a.ID)
	assert.Equal(t, apperr.Validation, kindOf(t, err))
	_, err = follows.Toggle(ctx, a.ID, 4242)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))

	state, err := follows.Toggle(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "following", state)

	p, err := follows.Profile(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.FollowersCount)
	assert.True(t, p.IsFollowing)
	assert.Equal(t, policy.RoleUser, p.Role)

	state, err = follows.Toggle(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "unfollowed", state)
	p, err = follows.Profile(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Zero(t, p.FollowersCount)
	assert.False(t, p.IsFollowing)
}

func TestCommentService(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	author := rdbtest.User(t, db, "author", policy.RoleUser)
	other := rdbtest.User(t, db, "other", policy.RoleUser)
	staff := rdbtest.User(t, db, "staff", policy.RoleStaffAdmin)
	posts := service.NewPostService(db, zap.NewNop())
	comments := service.NewCommentService(db, zap.NewNop())
	cat := rdbtest.Category(t, db)

	p1, err := posts.Create(ctx, author.ID, service.CreatePostInput{CategoryID: cat, Title: "1", Content: "c"})
	require.NoError(t, err)
	p2, err := posts.Create(ctx, author.ID, service.CreatePostInput{CategoryID: cat, Title: "2", Content: "c"})
	require.NoError(t, err)

	top, err := comments.Create(ctx, author.ID, p1.ID, "first", nil)
	require.NoError(t, err)
	_, err = comments.Create(ctx, other.ID, p1.ID, "reply", &top.ID)
	require.NoError(t, err)
	_, err = comments.Create(ctx, other.ID, p2.ID, "wrong post", &top.ID)
	assert.Equal(t, apperr.Validation, kindOf(t, err))
	_, err = comments.Create(ctx, other.ID, 999, "x", nil)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))

	roots, err := comments.List(ctx, p1.ID, nil)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	replies, err := comments.List(ctx, p1.ID, &top.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)

	err = comments.Delete(ctx, other.ID, top.ID)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))
	require.NoError(t, comments.Delete(ctx, staff.ID, replies[0].ID))
	require.NoError(t, comments.Delete(ctx, author.ID, top.ID))
}

func TestReactionServiceValidatesKindAndTarget(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	u := rdbtest.User(t, db, "u", policy.RoleUser)
	reactions := service.NewReactionService(db, zap.NewNop())

	_, err := reactions.TogglePost(ctx, u.ID, 1, "love")
	assert.Equal(t, apperr.Validation, kindOf(t, err))
	_, err = reactions.TogglePost(ctx, u.ID, 1, model.ReactionLike)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
	_, err = reactions.ToggleComment(ctx, u.ID, 1, model.ReactionLike)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestBookmarkService(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	u := rdbtest.User(t, db, "u", policy.RoleUser)
	posts := service.NewPostService(db, zap.NewNop())
	bookmarks := service.NewBookmarkService(db, zap.NewNop())

	list, err := bookmarks.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	p, err := posts.Create(ctx, u.ID, service.CreatePostInput{CategoryID: rdbtest.Category(t, db), Title: "t", Content: "c"})
	require.NoError(t, err)
	state, err := bookmarks.Toggle(ctx, u.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, rdb.BookmarkAdded, state)

	list, err = bookmarks.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)
}

func TestAwardServiceRejectsUnknownTable(t *testing.T) {
	db := rdbtest.Open(t)
	awards := service.NewAwardService(db, zap.NewNop())

	_, err := awards.Table(context.Background(), "users; DROP TABLE users", 10, 0)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))

	page, err := awards.Table(context.Background(), "grammy", 0, -5)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, "Grammy Awards", page.DisplayName)
	assert.Equal(t, 1, page.Limit)
	assert.Zero(t, page.Offset)

	page, err = awards.Table(context.Background(), "grammy", 5000, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, page.Limit)
}

func TestAuthSignupAndLogin(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	tokens := pkg.NewTokenIssuer("test-secret", time.Minute)
	auth := service.NewAuthService(db, service.AuthOptions{Tokens: tokens}, zap.NewNop())

	acct, msg, err := auth.Signup(ctx, service.SignupInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "Ada@Example.com", Password: "secret1", Role: policy.RoleStaffAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", acct.Username)
	assert.Equal(t, policy.RoleUser, acct.Role, "requested role ignored unless allowed")
	assert.Equal(t, "User account created successfully.", msg)

	_, _, err = auth.Signup(ctx, service.SignupInput{
		FirstName: "Other", LastName: "Person", Email: "ada@example.com", Password: "secret1",
	})
	assert.Equal(t, apperr.Conflict, kindOf(t, err))

	_, _, err = auth.Signup(ctx, service.SignupInput{FirstName: "No", Email: "x@y.z", Password: "secret1"})
	assert.Equal(t, apperr.Validation, kindOf(t, err))

	_, err = auth.Login(ctx, "ada@example.com", "wrong")
	assert.Equal(t, apperr.Authentication, kindOf(t, err))
	_, err = auth.Login(ctx, "nobody@example.com", "secret1")
	assert.Equal(t, apperr.Authentication, kindOf(t, err))

	res, err := auth.Login(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.Account.FirstName)
	assert.Equal(t, "Lovelace", res.Account.LastName)
	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, claims.UserID)

	require.NoError(t, auth.Logout(ctx, acct.ID), "stateless logout succeeds")
}

func TestAuthSignupSelfAssignedRole(t *testing.T) {
	db := rdbtest.Open(t)
	auth := service.NewAuthService(db, service.AuthOptions{
		Tokens:                 pkg.NewTokenIssuer("test-secret", time.Minute),
		AllowSelfAssignedRoles: true,
	}, zap.NewNop())

	acct, msg, err := auth.Signup(context.Background(), service.SignupInput{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Password: "secret1", Role: policy.RoleStaffAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleStaffAdmin, acct.Role)
	assert.Equal(t, "Staff Admin account created successfully.", msg)

	acct, _, err = auth.Signup(context.Background(), service.SignupInput{
		FirstName: "Bad", LastName: "Role", Email: "bad@example.com", Password: "secret1", Role: "root",
	})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleUser, acct.Role)
}

func TestOutboxRelayerRetriesFailures(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	a := rdbtest.User(t, db, "a", policy.RoleUser)
	b := rdbtest.User(t, db, "b", policy.RoleUser)
	_, err := service.NewFollowService(db, zap.NewNop()).Toggle(ctx, a.ID, b.ID)
	require.NoError(t, err)

	calls := 0
	flaky := func(context.Context, *model.SocialOutbox) error {
		calls++
		if calls == 1 {
			return errors.New("broker down")
		}
		return nil
	}
	relay := service.NewOutboxRelayer(db, service.MultiSender(service.LogSender(zap.NewNop()), flaky), 10, time.Second, zap.NewNop())

	sent, err := relay.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	sent, err = relay.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = relay.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent, "delivered events are not resent")
}

type publishedEvent struct {
	key, eventType, eventID string
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, key, eventType, eventID string, _ []byte) error {
	p.events = append(p.events, publishedEvent{key: key, eventType: eventType, eventID: eventID})
	return nil
}

func TestKafkaRedeliveryKeepsEventID(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	a := rdbtest.User(t, db, "a", policy.RoleUser)
	b := rdbtest.User(t, db, "b", policy.RoleUser)
	_, err := service.NewFollowService(db, zap.NewNop()).Toggle(ctx, a.ID, b.ID)
	require.NoError(t, err)
	var row model.SocialOutbox
	require.NoError(t, db.First(&row).Error)

	pub := &fakePublisher{}
	mailFails := true
	mail := func(context.Context, *model.SocialOutbox) error {
		if mailFails {
			return errors.New("smtp down")
		}
		return nil
	}
	relay := service.NewOutboxRelayer(db, service.MultiSender(service.KafkaSender(pub), mail), 10, time.Second, zap.NewNop())

	sent, err := relay.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	mailFails = false
	sent, err = relay.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, pub.events, 2, "kafka saw the event again on retry")
	want := pkg.KeyFromID(row.ID)
	for _, e := range pub.events {
		assert.Equal(t, want, e.eventID)
		assert.Equal(t, pkg.KeyFromID(a.ID), e.key)
		assert.Equal(t, model.EventFollow, e.eventType)
	}
}

type fakeMailer struct {
	to, subject, body string
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

func TestMailSenderNotifiesFollowee(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	a := rdbtest.User(t, db, "alice", policy.RoleUser)
	b := rdbtest.User(t, db, "bob", policy.RoleUser)
	m := &fakeMailer{}
	send := service.MailSender(db, m)

	require.NoError(t, send(ctx, &model.SocialOutbox{EventType: model.EventUnfollow, ActorID: a.ID, SubjectID: b.ID}))
	assert.Empty(t, m.to)

	require.NoError(t, send(ctx, &model.SocialOutbox{EventType: model.EventFollow, ActorID: a.ID, SubjectID: b.ID}))
	assert.Equal(t, "bob@prizetalk.test", m.to)
	assert.Contains(t, m.body, "alice")
}

func TestFollowCountReconciler(t *testing.T) {
	db := rdbtest.Open(t)
	ctx := context.Background()
	a := rdbtest.User(t, db, "a", policy.RoleUser)
	b := rdbtest.User(t, db, "b", policy.RoleUser)
	_, err := service.NewFollowService(db, zap.NewNop()).Toggle(ctx, a.ID, b.ID)
	require.NoError(t, err)
	drift(t, db, a.ID, 3, 9)

	r := service.NewFollowCountReconciler(db, 1, zap.NewNop())
	fixed, err := r.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	fixed, err = r.ReconcileOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func drift(t *testing.T, db *gorm.DB, userID uint64, followers, following int64) {
	t.Helper()
	require.NoError(t, db.Model(&model.UserProfile{}).Where("user_id = ?", userID).
		Updates(map[string]any{"followers_count": followers, "following_count": following}).Error)
}

// internal/app/verification/service.go
// Package verification runs the email one-time-code workflow that binds a
// Discord account to a mentee record and grants the mentee's clan role.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devweekends/clanverify/internal/app/platform"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	requeststore "github.com/devweekends/clanverify/internal/app/store/requests"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/clanmatch"
	"github.com/devweekends/clanverify/internal/app/system/flightguard"
	"github.com/devweekends/clanverify/internal/app/system/inputval"
	"github.com/devweekends/clanverify/internal/app/system/mailer"
	"github.com/devweekends/clanverify/internal/app/system/metrics"
	"github.com/devweekends/clanverify/internal/app/system/normalize"
	"github.com/devweekends/clanverify/internal/app/system/timeouts"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// MaxAttempts is the number of wrong codes after which a request fails.
	MaxAttempts = 3
	// DefaultCodeTTL is how long an issued code stays valid unless
	// Deps.CodeTTL says otherwise.
	DefaultCodeTTL = 10 * time.Minute
)

// ErrAttemptsExhausted is returned by SubmitCode when a wrong code uses up
// the last attempt. The request has been moved to failed.
var ErrAttemptsExhausted = apperr.Validation("Too many incorrect codes. Please start over.")

// MenteeStore is the mentee persistence the workflow needs.
type MenteeStore interface {
	GetByEmail(ctx context.Context, email string) (models.Mentee, error)
	VerifiedByDiscordID(ctx context.Context, discordID string) (models.Mentee, error)
	MarkChallengeIssued(ctx context.Context, id primitive.ObjectID, discordID, username string) error
	MarkVerified(ctx context.Context, id primitive.ObjectID, at time.Time) error
	ResetChallenge(ctx context.Context, discordID string) (int64, error)
}

type ClanStore interface {
	ListEnabled(ctx context.Context) ([]models.Clan, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Clan, error)
}

type RequestStore interface {
	Create(ctx context.Context, r models.VerificationRequest) (models.VerificationRequest, error)
	FindOpen(ctx context.Context, discordID string) (models.VerificationRequest, error)
	DeleteReplaceable(ctx context.Context, discordID string) (int64, error)
	DeleteOpen(ctx context.Context, discordID string) (int64, error)
	Save(ctx context.Context, r *models.VerificationRequest) error
}

type ConfigStore interface {
	Get(ctx context.Context) (models.BotConfig, error)
}

// Platform is the chat-platform surface the workflow uses.
type Platform interface {
	platform.Directory
	platform.Messenger
}

// Deps wires a Service.
type Deps struct {
	Mentees  MenteeStore
	Clans    ClanStore
	Requests RequestStore
	Config   ConfigStore
	Platform Platform
	Mail     mailer.Sender
	Guard    flightguard.Guard
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	CodeTTL  time.Duration
}

// Service issues and checks verification codes.
type Service struct {
	Deps

	// Now and NewCode are replaceable in tests.
	Now     func() time.Time
	NewCode func() (string, error)
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Guard == nil {
		d.Guard = flightguard.NewLocal()
	}
	if d.CodeTTL <= 0 {
		d.CodeTTL = DefaultCodeTTL
	}
	return &Service{
		Deps:    d,
		Now:     func() time.Time { return time.Now().UTC() },
		NewCode: GenerateCode,
	}
}

// IssueInput identifies who is asking for a code and for which email.
type IssueInput struct {
	DiscordID string
	Username  string
	Email     string
}

// IssueResult describes an issued challenge.
type IssueResult struct {
	Request models.VerificationRequest
	Mentee  models.Mentee
	Clan    models.Clan
	TTL     time.Duration
}

// Issue checks the preconditions for email, supersedes any previous
// request of the Discord user, persists a new challenge and emails the
// code. When the email cannot be delivered the request is persisted as
// failed and an External error is returned.
func (s *Service) Issue(ctx context.Context, in IssueInput) (IssueResult, error) {
	release, err := s.Guard.Acquire(ctx, "issue:"+in.DiscordID)
	if err != nil {
		if errors.Is(err, flightguard.ErrInProgress) {
			return IssueResult{}, apperr.Wrap(apperr.KindInProgress,
				"Please wait, processing your previous request...", err)
		}
		return IssueResult{}, fmt.Errorf("acquire issue guard: %w", err)
	}
	defer release()

	email := normalize.Email(in.Email)
	if !inputval.IsValidEmail(email) {
		return IssueResult{}, apperr.Validation("That doesn't look like a valid email address.")
	}

	mentee, err := s.Mentees.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, menteestore.ErrNotFound) {
			return IssueResult{}, apperr.NotFound(fmt.Sprintf(
				"The email %s is not in the mentee list. Please use the email you registered with.", email))
		}
		return IssueResult{}, fmt.Errorf("load mentee: %w", err)
	}
	if strings.TrimSpace(mentee.AssignedClan) == "" {
		return IssueResult{}, apperr.Validation(
			"Your email is registered but you haven't been assigned to a clan yet. Please contact an administrator.")
	}
	if mentee.Status == models.MenteeVerified {
		return IssueResult{}, apperr.Conflict(fmt.Sprintf(
			"This email has already been verified. You should have the %s role.", mentee.AssignedClan))
	}
	if mentee.DiscordID != "" && mentee.DiscordID != in.DiscordID {
		return IssueResult{}, apperr.Conflict(
			"This email is linked to a different Discord account. Each email can only be used once.")
	}

	other, err := s.Mentees.VerifiedByDiscordID(ctx, in.DiscordID)
	switch {
	case err == nil && other.ID != mentee.ID:
		return IssueResult{}, apperr.Conflict(
			"Your Discord account is already verified with another email. Each Discord account can only verify once.")
	case err != nil && !errors.Is(err, menteestore.ErrNotFound):
		return IssueResult{}, fmt.Errorf("check discord binding: %w", err)
	}

	clans, err := s.Clans.ListEnabled(ctx)
	if err != nil {
		return IssueResult{}, fmt.Errorf("list clans: %w", err)
	}
	clan, ok := clanmatch.Resolve(mentee.AssignedClan, clans)
	if !ok {
		return IssueResult{}, apperr.NotFound(fmt.Sprintf(
			"Your assigned clan %q is not available. Available clans: %s. Please contact an administrator.",
			mentee.AssignedClan, clanNames(clans)))
	}
	if clan.RoleID == "" {
		return IssueResult{}, apperr.Validation(fmt.Sprintf(
			"Clan %s has no role configured. Please contact an administrator.", clan.Name))
	}

	if _, err := s.Requests.DeleteReplaceable(ctx, in.DiscordID); err != nil {
		return IssueResult{}, fmt.Errorf("supersede requests: %w", err)
	}

	code, err := s.NewCode()
	if err != nil {
		return IssueResult{}, fmt.Errorf("generate code: %w", err)
	}
	now := s.Now()
	expires := now.Add(s.CodeTTL)
	req, err := s.Requests.Create(ctx, models.VerificationRequest{
		DiscordID:       in.DiscordID,
		DiscordUsername: in.Username,
		MenteeID:        mentee.ID,
		Email:           mentee.Email,
		ClanID:          clan.ID,
		RoleID:          clan.RoleID,
		Code:            code,
		CodeExpiresAt:   &expires,
		Status:          models.RequestChallengeIssued,
	})
	if err != nil {
		if errors.Is(err, requeststore.ErrOpenExists) {
			return IssueResult{}, apperr.Wrap(apperr.KindInProgress,
				"Please wait, processing your previous request...", err)
		}
		return IssueResult{}, fmt.Errorf("create request: %w", err)
	}

	if err := s.Mentees.MarkChallengeIssued(ctx, mentee.ID, in.DiscordID, in.Username); err != nil {
		return IssueResult{}, fmt.Errorf("mark mentee challenged: %w", err)
	}
	mentee.DiscordID = in.DiscordID
	mentee.DiscordUsername = in.Username
	mentee.Status = models.MenteeChallengeIssued

	res := IssueResult{Request: req, Mentee: mentee, Clan: clan, TTL: s.CodeTTL}

	if err := s.sendCode(ctx, mentee.Email, code, clan.Name); err != nil {
		s.Logger.Error("verification email failed",
			zap.String("discord_id", in.DiscordID),
			zap.String("email", mentee.Email),
			zap.Error(err))
		s.Metrics.Verification(metrics.OutcomeEmailFailed)
		if ferr := s.fail(ctx, &req, "email delivery failed: "+err.Error()); ferr != nil {
			return res, ferr
		}
		res.Request = req
		return res, apperr.External("Failed to send the verification code. Please try again or contact an administrator.", err)
	}

	s.Metrics.Verification(metrics.OutcomeIssued)
	s.Logger.Info("verification code issued",
		zap.String("discord_id", in.DiscordID),
		zap.String("mentee_id", mentee.ID.Hex()),
		zap.String("clan", clan.Name))
	return res, nil
}

func (s *Service) sendCode(ctx context.Context, to, code, clanName string) error {
	cfg, err := s.Config.Get(ctx)
	if err != nil {
		s.Logger.Warn("load bot config for email; using defaults", zap.Error(err))
		cfg = models.DefaultBotConfig()
	}
	msg := mailer.BuildVerificationEmail(cfg, mailer.VerificationData{Code: code, Clan: clanName, Email: to})
	msg.To = to

	sendCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), s.Logger, "send verification email")
	defer cancel()
	return s.Mail.Send(sendCtx, msg)
}

// fail moves req to failed with reason and persists it.
func (s *Service) fail(ctx context.Context, req *models.VerificationRequest, reason string) error {
	if err := req.Transition(models.RequestFailed); err != nil {
		return err
	}
	req.FailureReason = reason
	if err := s.Requests.Save(ctx, req); err != nil {
		return fmt.Errorf("persist failed request: %w", err)
	}
	return nil
}

// Pending returns the Discord user's open, unexpired request.
func (s *Service) Pending(ctx context.Context, discordID string) (models.VerificationRequest, bool, error) {
	req, err := s.Requests.FindOpen(ctx, discordID)
	if err != nil {
		if errors.Is(err, requeststore.ErrNotFound) {
			return models.VerificationRequest{}, false, nil
		}
		return models.VerificationRequest{}, false, err
	}
	if req.Expired(s.Now()) {
		return req, false, nil
	}
	return req, true, nil
}

// AlreadyVerified returns the verified mentee bound to discordID, if any.
func (s *Service) AlreadyVerified(ctx context.Context, discordID string) (models.Mentee, bool, error) {
	m, err := s.Mentees.VerifiedByDiscordID(ctx, discordID)
	if err != nil {
		if errors.Is(err, menteestore.ErrNotFound) {
			return models.Mentee{}, false, nil
		}
		return models.Mentee{}, false, err
	}
	return m, true, nil
}

// Outcome is the result of one code submission.
type Outcome string

const (
	OutcomeVerified   Outcome = "verified"
	OutcomeWrongCode  Outcome = "wrong_code"
	OutcomeExpired    Outcome = "expired"
	OutcomeExhausted  Outcome = "exhausted"
	OutcomeRoleFailed Outcome = "role_failed"
)

// SubmitResult reports what SubmitCode did.
type SubmitResult struct {
	Outcome      Outcome
	Request      models.VerificationRequest
	Clan         models.Clan
	AttemptsLeft int
}

// SubmitCode checks code against the Discord user's open request.
//
// A matching code is handled in three persisted steps: the match is
// recorded, the clan role is granted, and then the request and mentee are
// marked verified. A failed grant leaves the request failed with the reason
// recorded and the mentee unverified.
func (s *Service) SubmitCode(ctx context.Context, discordID, code string) (SubmitResult, error) {
	req, err := s.Requests.FindOpen(ctx, discordID)
	if err != nil {
		if errors.Is(err, requeststore.ErrNotFound) {
			return SubmitResult{}, apperr.NotFound("No pending verification. Please click the verification button to start over.")
		}
		return SubmitResult{}, fmt.Errorf("load request: %w", err)
	}

	now := s.Now()
	matched := req.Verify(now, normalize.Code(code))
	res := SubmitResult{Request: req}

	if req.Status == models.RequestExpired {
		if err := s.Requests.Save(ctx, &req); err != nil {
			return res, fmt.Errorf("persist expired request: %w", err)
		}
		s.Metrics.Verification(metrics.OutcomeExpired)
		res.Outcome, res.Request = OutcomeExpired, req
		return res, nil
	}

	if !matched {
		if req.Attempts >= MaxAttempts {
			if err := s.fail(ctx, &req, "too many incorrect codes"); err != nil {
				return res, err
			}
			s.Metrics.Verification(metrics.OutcomeExhausted)
			res.Outcome, res.Request = OutcomeExhausted, req
			return res, ErrAttemptsExhausted
		}
		if err := s.Requests.Save(ctx, &req); err != nil {
			return res, fmt.Errorf("persist attempt: %w", err)
		}
		s.Metrics.Verification(metrics.OutcomeWrongCode)
		res.Outcome, res.Request = OutcomeWrongCode, req
		res.AttemptsLeft = MaxAttempts - req.Attempts
		return res, nil
	}

	// Record the match before touching the platform so an interrupted
	// grant leaves an inspectable record.
	req.CodeMatchedAt = &now
	if err := s.Requests.Save(ctx, &req); err != nil {
		return res, fmt.Errorf("persist code match: %w", err)
	}

	clan, err := s.Clans.GetByID(ctx, req.ClanID)
	if err != nil {
		s.Logger.Warn("load clan for verified request", zap.String("clan_id", req.ClanID.Hex()), zap.Error(err))
		clan = models.Clan{ID: req.ClanID, RoleID: req.RoleID}
	}
	res.Clan = clan

	grantCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Platform(), s.Logger, "grant clan role")
	grantErr := s.Platform.AddRole(grantCtx, discordID, req.RoleID, "Verified via email: "+req.Email)
	cancel()
	if grantErr != nil {
		s.Logger.Error("clan role grant failed",
			zap.String("discord_id", discordID),
			zap.String("role_id", req.RoleID),
			zap.Error(grantErr))
		s.Metrics.Verification(metrics.OutcomeRoleFailed)
		if err := s.fail(ctx, &req, "role grant failed: "+grantErr.Error()); err != nil {
			return res, err
		}
		res.Outcome, res.Request = OutcomeRoleFailed, req
		return res, nil
	}

	cfg, cfgErr := s.Config.Get(ctx)
	if cfgErr != nil {
		s.Logger.Warn("load bot config after verification", zap.Error(cfgErr))
	}
	if cfg.MainRoleID != "" {
		if err := s.Platform.AddRole(ctx, discordID, cfg.MainRoleID, "Role group: has clan role"); err != nil {
			s.Logger.Warn("main role grant failed", zap.String("discord_id", discordID), zap.Error(err))
		}
	}

	if err := req.Transition(models.RequestVerified); err != nil {
		return res, err
	}
	req.RoleGranted = true
	req.VerifiedAt = &now
	req.Code = ""
	if err := s.Requests.Save(ctx, &req); err != nil {
		return res, fmt.Errorf("persist verified request: %w", err)
	}
	if err := s.Mentees.MarkVerified(ctx, req.MenteeID, now); err != nil {
		s.Logger.Error("mark mentee verified",
			zap.String("mentee_id", req.MenteeID.Hex()),
			zap.String("discord_id", discordID),
			zap.Error(err))
		// The role is already granted; leave the mismatch on the request
		// where the admin API shows it.
		req.FailureReason = "mentee not marked verified: " + err.Error()
		if serr := s.Requests.Save(ctx, &req); serr != nil {
			return res, fmt.Errorf("persist mentee mismatch: %w", serr)
		}
	}

	s.Metrics.Verification(metrics.OutcomeVerified)
	s.Logger.Info("mentee verified",
		zap.String("discord_id", discordID),
		zap.String("mentee_id", req.MenteeID.Hex()),
		zap.String("clan", clan.Name))

	if cfg.LogChannelID != "" {
		s.postVerificationLog(ctx, cfg.LogChannelID, req, clan, now)
	}

	res.Outcome, res.Request = OutcomeVerified, req
	return res, nil
}

func (s *Service) postVerificationLog(ctx context.Context, channelID string, req models.VerificationRequest, clan models.Clan, at time.Time) {
	user := fmt.Sprintf("<@%s>", req.DiscordID)
	if req.DiscordUsername != "" {
		user += " (" + req.DiscordUsername + ")"
	}
	e := platform.Embed{
		Title: "✅ Mentee Verified",
		Color: 0x57F287,
		Fields: []platform.EmbedField{
			{Name: "User", Value: user, Inline: true},
			{Name: "Clan", Value: clan.Name, Inline: true},
			{Name: "Email", Value: "`" + req.Email + "`"},
			{Name: "Role", Value: fmt.Sprintf("<@&%s>", req.RoleID), Inline: true},
			{Name: "Request ID", Value: "`" + req.ID.Hex() + "`", Inline: true},
			{Name: "Verified At", Value: fmt.Sprintf("<t:%d:f>", at.Unix())},
		},
		Timestamp: at,
	}
	if err := s.Platform.SendEmbed(ctx, channelID, e); err != nil {
		s.Logger.Warn("post verification log", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// Cancel drops the Discord user's open request and releases a mentee that
// was still waiting on the code. It reports whether anything was cancelled.
func (s *Service) Cancel(ctx context.Context, discordID string) (bool, error) {
	n, err := s.Requests.DeleteOpen(ctx, discordID)
	if err != nil {
		return false, fmt.Errorf("delete open requests: %w", err)
	}
	m, err := s.Mentees.ResetChallenge(ctx, discordID)
	if err != nil {
		return false, fmt.Errorf("reset mentee: %w", err)
	}
	if n > 0 || m > 0 {
		s.Metrics.Verification(metrics.OutcomeCancelled)
		return true, nil
	}
	return false, nil
}

func clanNames(clans []models.Clan) string {
	if len(clans) == 0 {
		return "none configured"
	}
	names := make([]string, len(clans))
	for i, c := range clans {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

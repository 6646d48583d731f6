package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"time"

	"github.com/dkovac/taskboard-api/internal/middleware"
	"github.com/dkovac/taskboard-api/internal/models"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/dkovac/taskboard-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type InvitationHandler struct {
	invitationService InvitationServiceInterface
	workspaceService  WorkspaceServiceInterface
	userService       UserServiceInterface
	emailService      EmailServiceInterface
	dispatcher        EventDispatcher
	frontendBaseURL   string
}

func NewInvitationHandler(
	invitationService InvitationServiceInterface,
	workspaceService WorkspaceServiceInterface,
	userService UserServiceInterface,
	emailService EmailServiceInterface,
	dispatcher EventDispatcher,
	frontendBaseURL string,
) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		workspaceService:  workspaceService,
		userService:       userService,
		emailService:      emailService,
		dispatcher:        dispatcher,
		frontendBaseURL:   frontendBaseURL,
	}
}

func (h *InvitationHandler) Create(c *drift.Context) {
	member := requireManager(c, h.workspaceService)
	if member == nil {
		return
	}

	var req dto.CreateInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		c.BadRequest("invalid email address")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		c.BadRequest("role must be ADMIN or MEMBER")
		return
	}

	ctx := context.Background()

	if invitee, err := h.userService.GetByEmail(ctx, req.Email); err == nil {
		if _, err := h.workspaceService.GetMember(ctx, member.WorkspaceID, invitee.ID); err == nil {
			_ = c.JSON(409, map[string]string{"error": "user is already a member of this workspace"})
			return
		}
	}

	invitation, evts, err := h.invitationService.Issue(ctx, member.WorkspaceID, member.UserID, req.Email, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateInvitation) {
			_ = c.JSON(409, map[string]string{"error": "a pending invitation for this email already exists"})
			return
		}
		c.InternalServerError("failed to create invitation")
		return
	}

	h.dispatcher.Dispatch(evts...)
	h.sendInvitationEmail(ctx, member, invitation)

	_ = c.JSON(201, invitationResponse(invitation, true))
}

func (h *InvitationHandler) sendInvitationEmail(ctx context.Context, member *models.WorkspaceMember, invitation *models.Invitation) {
	workspace, err := h.workspaceService.GetByID(ctx, member.WorkspaceID)
	if err != nil {
		return
	}
	inviter, err := h.userService.GetByID(ctx, member.UserID)
	if err != nil {
		return
	}

	inviteURL := fmt.Sprintf("%s/invitations/%s", h.frontendBaseURL, invitation.Token)
	if err := h.emailService.SendWorkspaceInvitation(invitation.Email, workspace.Name, inviter.Name, inviteURL); err != nil {
		log.Printf("failed to send invitation email to %s: %v", invitation.Email, err)
	}
}

func (h *InvitationHandler) List(c *drift.Context) {
	member := requireManager(c, h.workspaceService)
	if member == nil {
		return
	}

	invitations, err := h.invitationService.ListPending(context.Background(), member.WorkspaceID)
	if err != nil {
		c.InternalServerError("failed to list invitations")
		return
	}

	resp := make([]dto.InvitationResponse, 0, len(invitations))
	for i := range invitations {
		resp = append(resp, invitationResponse(&invitations[i], false))
	}

	_ = c.JSON(200, resp)
}

func (h *InvitationHandler) Revoke(c *drift.Context) {
	member := requireManager(c, h.workspaceService)
	if member == nil {
		return
	}

	invitationID, err := uuid.Parse(c.Param("invitationId"))
	if err != nil {
		c.BadRequest("invalid invitation id")
		return
	}

	err = h.invitationService.Revoke(context.Background(), member.WorkspaceID, invitationID)
	if err != nil {
		var resolved *services.AlreadyResolvedError
		switch {
		case errors.Is(err, services.ErrInvitationNotFound):
			c.NotFound("invitation not found")
		case errors.As(err, &resolved):
			_ = c.JSON(409, map[string]string{"error": resolved.Error()})
		default:
			c.InternalServerError("failed to revoke invitation")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invitation revoked"})
}

// Preview is the unauthenticated token-preview endpoint. It shows who is
// inviting whom to what, never the member list, and flags expiry so the
// frontend can explain a dead link.
func (h *InvitationHandler) Preview(c *drift.Context) {
	token := c.Param("token")
	if token == "" {
		c.BadRequest("token is required")
		return
	}

	invitation, err := h.invitationService.Lookup(context.Background(), token)
	if err != nil {
		c.NotFound("invitation not found")
		return
	}

	resp := dto.InvitationPreviewResponse{
		Email:     invitation.Email,
		Role:      invitation.Role,
		Status:    invitation.Status,
		Expired:   invitation.Status == models.InvitationStatusPending && invitation.Expired(time.Now()),
		ExpiresAt: invitation.ExpiresAt,
	}
	if invitation.Workspace != nil {
		resp.WorkspaceName = invitation.Workspace.Name
	}
	if invitation.Inviter != nil {
		resp.InviterName = invitation.Inviter.Name
	}

	_ = c.JSON(200, resp)
}

func (h *InvitationHandler) Accept(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.AcceptInvitationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Token == "" {
		c.BadRequest("token is required")
		return
	}

	workspace, evts, err := h.invitationService.Accept(context.Background(), req.Token, userID)
	if err != nil {
		var resolved *services.AlreadyResolvedError
		switch {
		case errors.Is(err, services.ErrInvitationNotFound):
			c.NotFound("invitation not found")
		case errors.As(err, &resolved):
			_ = c.JSON(409, map[string]string{"error": resolved.Error()})
		case errors.Is(err, services.ErrInvitationExpired):
			_ = c.JSON(410, map[string]string{"error": "invitation has expired"})
		default:
			c.InternalServerError("failed to accept invitation")
		}
		return
	}

	h.dispatcher.Dispatch(evts...)

	_ = c.JSON(200, dto.WorkspaceResponse{
		ID:   workspace.ID,
		Name: workspace.Name,
	})
}

func invitationResponse(inv *models.Invitation, includeToken bool) dto.InvitationResponse {
	resp := dto.InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      inv.Role,
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
	if includeToken {
		resp.Token = inv.Token
	}
	if inv.Inviter != nil {
		inviter := userResponse(inv.Inviter)
		resp.Inviter = &inviter
	}
	return resp
}

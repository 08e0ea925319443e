package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"bridges/internal/follow"
	"bridges/internal/follow/handler/mocks"
	"bridges/internal/platform/logger"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
	"bridges/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	viewer  id.UserID
	other   id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, logger.Discard()).Register(s.router)
	s.viewer = id.NewUserID()
	s.other = id.NewUserID()
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	return testutil.Do(s.router, testutil.AsUser(req, s.viewer))
}

func (s *HandlerSuite) TestRequestFollow() {
	s.Run("approved", func() {
		s.service.EXPECT().RequestFollow(gomock.Any(), s.viewer, s.other).
			Return(&follow.Edge{Status: follow.StatusApproved}, nil)

		rr := s.do(http.MethodPost, "/follows/"+s.other.String(), nil)

		s.Equal(http.StatusOK, rr.Code)
		s.Equal("approved", testutil.DecodeBody[map[string]any](s.T(), rr)["status"])
	})

	s.Run("conflict exposes status", func() {
		s.service.EXPECT().RequestFollow(gomock.Any(), s.viewer, s.other).
			Return(nil, &follow.ConflictError{Status: follow.StatusPending})

		rr := s.do(http.MethodPost, "/follows/"+s.other.String(), nil)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
		s.Equal("pending", testutil.DecodeBody[map[string]any](s.T(), rr)["status"])
	})

	s.Run("self reference", func() {
		s.service.EXPECT().RequestFollow(gomock.Any(), s.viewer, s.viewer).
			Return(nil, dErrors.New(dErrors.CodeSelfReference, "cannot follow yourself"))

		rr := s.do(http.MethodPost, "/follows/"+s.viewer.String(), nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "self_reference")
	})

	s.Run("malformed target", func() {
		rr := s.do(http.MethodPost, "/follows/not-a-uuid", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *HandlerSuite) TestUnfollow() {
	s.Run("ok", func() {
		s.service.EXPECT().Unfollow(gomock.Any(), s.viewer, s.other).Return(nil)
		rr := s.do(http.MethodDelete, "/follows/"+s.other.String(), nil)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("not following", func() {
		s.service.EXPECT().Unfollow(gomock.Any(), s.viewer, s.other).
			Return(dErrors.New(dErrors.CodeNotFound, "not following"))
		rr := s.do(http.MethodDelete, "/follows/"+s.other.String(), nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "not_following")
	})
}

func (s *HandlerSuite) TestRespond() {
	s.Run("accept", func() {
		s.service.EXPECT().Approve(gomock.Any(), s.viewer, s.other).
			Return(&follow.Edge{Status: follow.StatusApproved}, nil)
		rr := s.do(http.MethodPatch, "/follows/"+s.other.String(), map[string]string{"action": "accept"})
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("approved", testutil.DecodeBody[map[string]any](s.T(), rr)["status"])
	})

	s.Run("reject", func() {
		s.service.EXPECT().Reject(gomock.Any(), s.viewer, s.other).Return(nil)
		rr := s.do(http.MethodPatch, "/follows/"+s.other.String(), map[string]string{"action": "reject"})
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("no pending request", func() {
		s.service.EXPECT().Approve(gomock.Any(), s.viewer, s.other).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "no pending follow request"))
		rr := s.do(http.MethodPatch, "/follows/"+s.other.String(), map[string]string{"action": "accept"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "no_pending_request")
	})

	s.Run("unknown action", func() {
		rr := s.do(http.MethodPatch, "/follows/"+s.other.String(), map[string]string{"action": "maybe"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *HandlerSuite) TestStatus() {
	s.Run("no edge reports null status", func() {
		s.service.EXPECT().Status(gomock.Any(), s.viewer, s.other).Return(follow.FollowStatus{}, nil)
		rr := s.do(http.MethodGet, "/follows/"+s.other.String()+"/status", nil)

		s.Equal(http.StatusOK, rr.Code)
		body := testutil.DecodeBody[map[string]any](s.T(), rr)
		s.Equal(false, body["isFollowing"])
		s.Contains(body, "status")
		s.Nil(body["status"])
	})

	s.Run("pending", func() {
		pending := follow.StatusPending
		s.service.EXPECT().Status(gomock.Any(), s.viewer, s.other).
			Return(follow.FollowStatus{Status: &pending}, nil)
		rr := s.do(http.MethodGet, "/follows/"+s.other.String()+"/status", nil)
		s.Equal("pending", testutil.DecodeBody[map[string]any](s.T(), rr)["status"])
	})
}

func (s *HandlerSuite) TestLists() {
	s.Run("pending requests for the caller", func() {
		s.service.EXPECT().ListPendingRequests(gomock.Any(), s.viewer, 5).
			Return([]*follow.Edge{{FollowerID: s.other, FollowingID: s.viewer, Status: follow.StatusPending}}, nil)
		rr := s.do(http.MethodGet, "/follows/requests?limit=5", nil)
		s.Equal(http.StatusOK, rr.Code)
		items := testutil.DecodeBody[map[string]any](s.T(), rr)["items"].([]any)
		s.Len(items, 1)
	})

	s.Run("followers of another user", func() {
		s.service.EXPECT().ListFollowers(gomock.Any(), s.other, 0).Return([]*follow.Edge{}, nil)
		rr := s.do(http.MethodGet, "/users/"+s.other.String()+"/followers", nil)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("following of another user", func() {
		s.service.EXPECT().ListFollowing(gomock.Any(), s.other, 0).
			Return(nil, dErrors.New(dErrors.CodeInternal, "db down"))
		rr := s.do(http.MethodGet, "/users/"+s.other.String()+"/following", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readingroomapp/readingroom-server/internal/domain"
)

func (s *Server) registerSocialRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFriends",
		Method:      http.MethodGet,
		Path:        "/api/v1/friends",
		Summary:     "List friends",
		Description: "Returns a snapshot of the user's friends. Friends that fail to load are omitted.",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFriends)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFriend",
		Method:      http.MethodPut,
		Path:        "/api/v1/friends/{id}",
		Summary:     "Add friend",
		Description: "Adds a user to the caller's friend list. The relation is one-directional.",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddFriend)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFriend",
		Method:      http.MethodDelete,
		Path:        "/api/v1/friends/{id}",
		Summary:     "Remove friend",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFriend)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFriendLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/friends/{id}/library",
		Summary:     "Get a friend's library",
		Description: "Lists the books of a user on the caller's friend list",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFriendLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/search",
		Summary:     "Search users",
		Description: "Case-folded nickname prefix search over discoverable accounts",
		Tags:        []string{"Social"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchUsers)
}

// === DTOs ===

// FriendIDInput identifies one friend by path.
type FriendIDInput struct {
	ID string `path:"id" doc:"User ID of the friend"`
}

// SearchUsersInput contains the nickname prefix to search for.
type SearchUsersInput struct {
	Query string `query:"q" minLength:"1" maxLength:"50" doc:"Nickname prefix"`
}

// FriendResponse contains the public projection of a user.
type FriendResponse struct {
	ID        string `json:"id" doc:"User ID"`
	Nickname  string `json:"nickname" doc:"Display nickname"`
	AvatarURL string `json:"avatar_url,omitempty" doc:"Avatar image URL"`
}

// FriendListOutput wraps a list of friend profiles for Huma.
type FriendListOutput struct {
	Body struct {
		Friends []FriendResponse `json:"friends" doc:"Friend profiles"`
	}
}

// UserSearchOutput wraps user search results for Huma.
type UserSearchOutput struct {
	Body struct {
		Users []FriendResponse `json:"users" doc:"Matching discoverable users"`
	}
}

// === Handlers ===

func (s *Server) handleListFriends(ctx context.Context, _ *struct{}) (*FriendListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	friends, err := s.services.Social.Friends(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &FriendListOutput{}
	out.Body.Friends = mapFriendProfiles(friends)
	return out, nil
}

func (s *Server) handleAddFriend(ctx context.Context, input *FriendIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.services.Social.AddFriend(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Friend added"}}, nil
}

func (s *Server) handleRemoveFriend(ctx context.Context, input *FriendIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.services.Social.RemoveFriend(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Friend removed"}}, nil
}

func (s *Server) handleFriendLibrary(ctx context.Context, input *FriendIDInput) (*ListBooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Social.FriendLibrary(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	out := &ListBooksOutput{}
	out.Body.Books = mapBooks(books)
	return out, nil
}

func (s *Server) handleSearchUsers(ctx context.Context, input *SearchUsersInput) (*UserSearchOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.services.Social.SearchUsers(ctx, userID, input.Query)
	if err != nil {
		return nil, err
	}

	out := &UserSearchOutput{}
	out.Body.Users = mapFriendProfiles(users)
	return out, nil
}

// === Helpers ===

func mapFriendProfiles(profiles []domain.FriendProfile) []FriendResponse {
	out := make([]FriendResponse, len(profiles))
	for i, p := range profiles {
		out[i] = FriendResponse{
			ID:        p.ID,
			Nickname:  p.Nickname,
			AvatarURL: p.AvatarURL,
		}
	}
	return out
}

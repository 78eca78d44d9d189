package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func (s *testServer) adminToken(t *testing.T) (string, int64) {
	t.Helper()
	u, err := s.accounts.EnsureAdmin(context.Background(), "Root", "root@seatrack.io", "rootpass")
	require.NoError(t, err)
	w := s.do(t, "POST", "/auth/login", "", gin.H{"email": "root@seatrack.io", "password": "rootpass"})
	require.Equal(t, http.StatusOK, w.Code)
	return decode(t, w).Token, u.ID
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	ana := s.signUp(t, "Ana", "ana@x.com", "secret1")

	require.Equal(t, http.StatusUnauthorized, s.do(t, "GET", "/admin/users", "", nil).Code)

	w := s.do(t, "GET", "/admin/users", ana.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "forbidden", decode(t, w).Code)

	require.Equal(t, http.StatusForbidden, s.do(t, "GET", "/admin/stats", ana.Token, nil).Code)
	require.Equal(t, http.StatusForbidden, s.do(t, "DELETE", "/admin/users/1", ana.Token, nil).Code)
}

func TestAdminListUsers(t *testing.T) {
	s := newTestServer(t, nil)
	s.signUp(t, "Ana", "ana@x.com", "secret1")
	token, _ := s.adminToken(t)

	w := s.do(t, "GET", "/admin/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Users []map[string]interface{} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Users, 2)
	for _, u := range body.Users {
		require.NotContains(t, u, "passwordHash")
	}
}

func TestAdminChangeRoleAndStatus(t *testing.T) {
	s := newTestServer(t, nil)
	ana := s.signUp(t, "Ana", "ana@x.com", "secret1")
	id := int64(ana.User["id"].(float64))
	token, _ := s.adminToken(t)

	w := s.do(t, "PUT", fmt.Sprintf("/admin/users/%d/role", id), token, gin.H{"role": "employee"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "employee", decode(t, w).User["role"])

	w = s.do(t, "PUT", fmt.Sprintf("/admin/users/%d/role", id), token, gin.H{"role": "overlord"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid_role", decode(t, w).Code)

	w = s.do(t, "PUT", "/admin/users/999/role", token, gin.H{"role": "user"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, "PUT", "/admin/users/abc/role", token, gin.H{"role": "user"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid_id", decode(t, w).Code)

	w = s.do(t, "PUT", fmt.Sprintf("/admin/users/%d/status", id), token, gin.H{"status": "inactive"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "inactive", decode(t, w).User["status"])

	w = s.do(t, "PUT", fmt.Sprintf("/admin/users/%d/status", id), token, gin.H{"status": "suspended"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "invalid_status", decode(t, w).Code)

	w = s.do(t, "POST", "/auth/login", "", gin.H{"email": "ana@x.com", "password": "secret1"})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "account_inactive", decode(t, w).Code)
}

func TestAdminDeleteUser(t *testing.T) {
	s := newTestServer(t, nil)
	ana := s.signUp(t, "Ana", "ana@x.com", "secret1")
	id := int64(ana.User["id"].(float64))
	token, adminID := s.adminToken(t)

	w := s.do(t, "DELETE", fmt.Sprintf("/admin/users/%d", adminID), token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "admin_protected", decode(t, w).Code)

	w = s.do(t, "DELETE", fmt.Sprintf("/admin/users/%d", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ana@x.com", decode(t, w).User["email"])

	w = s.do(t, "DELETE", fmt.Sprintf("/admin/users/%d", id), token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t, nil)
	s.signUp(t, "Ana", "ana@x.com", "secret1")
	s.signUp(t, "Bo", "bo@x.com", "secret1")
	token, _ := s.adminToken(t)

	w := s.do(t, "GET", "/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st struct {
		TotalUsers  int            `json:"totalUsers"`
		ActiveUsers int            `json:"activeUsers"`
		UsersByRole map[string]int `json:"usersByRole"`
		Roles       []struct {
			Key         string   `json:"key"`
			Name        string   `json:"name"`
			Permissions []string `json:"permissions"`
		} `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, 3, st.TotalUsers)
	require.Equal(t, 3, st.ActiveUsers)
	require.Equal(t, map[string]int{"user": 2, "employee": 0, "admin": 1}, st.UsersByRole)
	require.Len(t, st.Roles, 3)
	require.Equal(t, "Employee", st.Roles[1].Name)
	require.Contains(t, st.Roles[1].Permissions, "route_optimization")
}

func TestAdminDemotedAdminLosesAccessImmediately(t *testing.T) {
	s := newTestServer(t, nil)
	rootToken, _ := s.adminToken(t)
	bob := s.signUp(t, "Bob", "bob@x.com", "secret1")
	bobID := int64(bob.User["id"].(float64))
	ana := s.signUp(t, "Ana", "ana@x.com", "secret1")
	anaID := int64(ana.User["id"].(float64))

	w := s.do(t, "PUT", fmt.Sprintf("/admin/users/%d/role", bobID), rootToken, gin.H{"role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, "POST", "/auth/login", "", gin.H{"email": "bob@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	bobToken := decode(t, w).Token
	require.Equal(t, http.StatusOK, s.do(t, "GET", "/admin/stats", bobToken, nil).Code)

	w = s.do(t, "PUT", fmt.Sprintf("/admin/users/%d/role", bobID), rootToken, gin.H{"role": "user"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, "DELETE", fmt.Sprintf("/admin/users/%d", anaID), bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "forbidden", decode(t, w).Code)

	w = s.do(t, "GET", "/auth/verify", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var v struct {
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	require.Equal(t, "user", v.Role)

	w = s.do(t, "GET", "/auth/profile", ana.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, "ana was not deleted")
}

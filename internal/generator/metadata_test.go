package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mark3labs/rulespec/internal/analysis"
)

func TestSummary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		route  analysis.Route
		method string
		ca     *analysis.ControllerAnalysis
		want   string
	}{
		{"analyzed summary", analysis.Route{URI: "api/users", Action: "index"}, "GET", &analysis.ControllerAnalysis{Summary: " Browse everyone "}, "Browse everyone"},
		{"index", analysis.Route{URI: "api/users", Action: "index"}, "GET", nil, "List users"},
		{"show", analysis.Route{URI: "api/users/{user}", Action: "show"}, "GET", nil, "Get user"},
		{"store", analysis.Route{URI: "api/categories", Action: "store"}, "POST", nil, "Create category"},
		{"destroy", analysis.Route{URI: "api/users/{user}", Action: "destroy"}, "DELETE", nil, "Delete user"},
		{"custom action", analysis.Route{URI: "api/users/{user}/ban", Action: "banUser"}, "POST", nil, "Ban User"},
		{"invokable", analysis.Route{URI: "api/reports/{report}", Action: "__invoke"}, "GET", nil, "Get report"},
		{"closure collection", analysis.Route{URI: "api/orders"}, "GET", nil, "List orders"},
		{"closure patch", analysis.Route{URI: "api/orders/{order}"}, "PATCH", nil, "Update order"},
		{"root", analysis.Route{URI: "/"}, "GET", nil, "List resources"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Summary(tt.route, tt.method, tt.ca), tt.name)
	}
}

func TestOperationIDsAreUnique(t *testing.T) {
	t.Parallel()
	ids := NewOperationIDs()

	assert.Equal(t, "usersIndex", ids.Next(analysis.Route{Name: "users.index", URI: "api/users"}, "get", false))
	assert.Equal(t, "usersUpdatePut", ids.Next(analysis.Route{Name: "users.update"}, "put", true))
	assert.Equal(t, "getApiUsersUser", ids.Next(analysis.Route{URI: "api/users/{user}"}, "get", false))
	assert.Equal(t, "getApiUsersUser2", ids.Next(analysis.Route{URI: "api/users/{user?}"}, "get", false))
	assert.Equal(t, "usersIndex2", ids.Next(analysis.Route{Name: "users.index"}, "get", false))
	assert.Equal(t, "usersIndex3", ids.Next(analysis.Route{Name: "users_index"}, "get", false))
}

func TestSplitWords(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"api", "order", "Items", "id"}, splitWords("api/order-Items/{id?}"))
	assert.Equal(t, "sendResetLink", camel(splitWords("send_reset_link")))
}

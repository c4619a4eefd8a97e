package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `huddle is a team's shared inbox, approvals queue and task list. Every change
is published as an activity event to teammates watching the live stream.

Workflow:
1) Orient: get_recent_activity shows what changed lately (filter by type to narrow).
2) Browse: list_conversations / list_approvals / list_tasks.
3) Act: escalate_conversation, approve / reject, create_task / update_task.
   Each action publishes its own activity event; do not publish a duplicate.
4) Announce anything else with publish_activity (pick a descriptive snake_case type).

Docs:
- huddle://docs/activity-types (event types and their data payloads)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "huddle://docs/activity-types",
		Name:        "docs_activity_types",
		Title:       "Activity event types",
		Description: "Event types published on the activity stream and the shape of their data.",
		Content: `# Activity event types

| type | data |
|---|---|
| conversation_created | conversationId |
| message_created | conversationId, messageId, preview |
| conversation_updated | conversationId, changes (field -> new value) |
| conversation_escalated | conversationId, reason |
| approval_created | approvalId |
| approval_approved | approvalId |
| approval_rejected | approvalId, reason |
| task_created | taskId |
| task_updated | taskId, changes (field -> new value) |

Any other type is delivered as-is. Clients show its title and description
but do not update their local stores for it.

Delivery is best effort: clients that are not connected when an event is
published do not receive it live and should refresh from the REST API.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

// Package e2e provides end-to-end tests over a generated documentation corpus.
package e2e

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

const wikiBase = "https://wiki.pmease.com/display/QB14"

// QueryTestCase is a question with the page and the exact sentence the engine
// must surface for it. ExpectedTitle must appear among the answer's sources;
// ExpectedAnswer is the extracted span, without the trailing period.
type QueryTestCase struct {
	Question       string
	ExpectedTitle  string
	ExpectedAnswer string
	Description    string
}

// Corpus holds documentation pages and query test cases for E2E tests.
type Corpus struct {
	Pages        []models.Page
	TestCases    []QueryTestCase
	TotalPages   int
	TotalQueries int
}

// topic is one documentation page plus, optionally, a question probing its
// first section. Each first-section opening sentence carries words that appear
// nowhere else in the corpus, so a question reusing those exact word forms
// retrieves that section and extracts that sentence.
type topic struct {
	title    string
	category string
	sections [2]models.Section
	question string
	answer   string
}

// BuildCorpus returns a corpus of QuickBuild documentation pages with varied
// content and a query test case for most of them.
func BuildCorpus() *Corpus {
	topics := buildTopics()
	pages := make([]models.Page, 0, len(topics))
	var cases []QueryTestCase
	for _, tp := range topics {
		pages = append(pages, models.Page{
			URL:        wikiBase + "/" + PageSlug(tp.title),
			Title:      tp.title,
			Breadcrumb: []string{"QuickBuild 14", tp.category},
			Sections:   tp.sections[:],
		})
		if tp.question != "" {
			cases = append(cases, QueryTestCase{
				Question:       tp.question,
				ExpectedTitle:  tp.title,
				ExpectedAnswer: tp.answer,
				Description:    fmt.Sprintf("question about %q finds the %q page", tp.sections[0].Header, tp.title),
			})
		}
	}
	return &Corpus{
		Pages:        pages,
		TestCases:    cases,
		TotalPages:   len(pages),
		TotalQueries: len(cases),
	}
}

func buildTopics() []topic {
	return []topic{
		{
			title: "Build Configurations", category: "Concepts",
			sections: [2]models.Section{
				{Header: "Configuration Tree", Content: "Configurations are organized in a hierarchical tree where child configurations inherit settings from their parent. Values changed on a child always win over the inherited ones."},
				{Header: "Editing Configurations", Content: "Use the configuration menu to rename, move, or disable an entry. Disabled entries stay visible but never run."},
			},
			question: "How do child configurations inherit settings from their parent?",
			answer:   "Configurations are organized in a hierarchical tree where child configurations inherit settings from their parent",
		},
		{
			title: "Build Steps", category: "Concepts",
			sections: [2]models.Section{
				{Header: "Composite Steps", Content: "Steps inside a composite run sequentially unless the composite is marked parallel. A failed step aborts the remaining siblings unless it is flagged optional."},
				{Header: "Step Library", Content: "The step library groups reusable definitions shared across projects. Drag a library entry into the execution graph to use it."},
			},
			question: "When do steps inside a composite run in parallel?",
			answer:   "Steps inside a composite run sequentially unless the composite is marked parallel",
		},
		{
			title: "Build Triggers", category: "Triggers",
			sections: [2]models.Section{
				{Header: "Schedule Trigger", Content: "A schedule trigger starts builds periodically according to a cron expression. Set the poll condition so unchanged repositories skip the run."},
				{Header: "Manual Trigger", Content: "A manual trigger waits for a user to press the run button. Use it for deployments that need human judgment."},
			},
			question: "Which trigger starts builds periodically from a cron expression?",
			answer:   "A schedule trigger starts builds periodically according to a cron expression",
		},
		{
			title: "Email Notifications", category: "Notifications",
			sections: [2]models.Section{
				{Header: "SMTP Setup", Content: "Email notifications are delivered through the SMTP host configured on the administration page. A notification template controls the subject and the body."},
				{Header: "Recipients", Content: "Recipients subscribe to a configuration and pick the conditions they care about. Unsubscribed users receive nothing."},
			},
			question: "Through which SMTP host are email notifications delivered?",
			answer:   "Email notifications are delivered through the SMTP host configured on the administration page",
		},
		{
			title: "Build Agents", category: "Grid",
			sections: [2]models.Section{
				{Header: "Agent Registration", Content: "Remote agents join the grid by announcing their address and a shared passphrase. Unapproved agents wait in a pending list until an administrator accepts them."},
				{Header: "Agent Health", Content: "The server pings each agent and marks unreachable ones offline. Offline agents receive no work until they recover."},
			},
			question: "How do remote agents join the grid by announcing their address?",
			answer:   "Remote agents join the grid by announcing their address and a shared passphrase",
		},
		{
			title: "Build Grid", category: "Grid",
			sections: [2]models.Section{
				{Header: "Node Selection", Content: "The grid dispatches every queued build to a node that matches its resource criteria. Nodes with matching resources but running builds are skipped until idle."},
				{Header: "Resources", Content: "Declare resources on each agent to describe installed toolchains. A build demands resources through its node criteria."},
			},
			question: "How does the grid choose the node for a queued build?",
			answer:   "The grid dispatches every queued build to a node that matches its resource criteria",
		},
		{
			title: "Artifacts", category: "Artifacts",
			sections: [2]models.Section{
				{Header: "Artifact Retention", Content: "Retention rules purge old artifacts once the reserve count is exceeded. Purged files are gone for good and cannot be restored from the interface."},
				{Header: "Publishing Artifacts", Content: "An artifact publisher copies build outputs into the artifact repository. Wildcard patterns select which outputs to keep."},
			},
			question: "When do retention rules purge old artifacts?",
			answer:   "Retention rules purge old artifacts once the reserve count is exceeded",
		},
		{
			title: "Build Variables", category: "Configuration",
			sections: [2]models.Section{
				{Header: "Variable Scopes", Content: "A variable declared on a configuration is visible to all of its descendants. Scripts read variables through the vars object at runtime."},
				{Header: "Secret Variables", Content: "Secret values are masked in logs and stored encrypted. Only administrators may reveal a secret value."},
			},
			question: "Where is a variable declared on a configuration visible?",
			answer:   "A variable declared on a configuration is visible to all of its descendants",
		},
		{
			title: "Source Repositories", category: "Integration",
			sections: [2]models.Section{
				{Header: "Subversion Repository", Content: "A subversion repository definition needs the server url and an optional username. Checkouts land in the configured workspace before the first step runs."},
				{Header: "Change Detection", Content: "The poller asks the repository for new revisions at a fixed cadence. Detected revisions appear on the changes tab."},
			},
			question: "Does a subversion repository definition contain the server url and an optional username?",
			answer:   "A subversion repository definition needs the server url and an optional username",
		},
		{
			title: "Git Integration", category: "Integration",
			sections: [2]models.Section{
				{Header: "Clone Depth", Content: "Shallow clones with a limited depth speed up checkout of big histories. Set depth to zero when the build needs full history."},
				{Header: "Branches", Content: "A branch pattern restricts which refs produce builds. Wildcards match release branches without listing each one."},
			},
			question: "How do shallow clones with a limited depth help?",
			answer:   "Shallow clones with a limited depth speed up checkout of big histories",
		},
		{
			title: "Dashboard Widgets", category: "UI",
			sections: [2]models.Section{
				{Header: "Widget Gallery", Content: "The dashboard is assembled from widgets such as history charts and statistics gadgets. Drag any widget to a new spot to change the layout."},
				{Header: "Sharing Dashboards", Content: "A dashboard can be shared with a group or kept personal. Shared dashboards are read only for viewers."},
			},
			question: "What is the dashboard assembled from?",
			answer:   "The dashboard is assembled from widgets such as history charts and statistics gadgets",
		},
		{
			title: "Build Badges", category: "Configuration",
			sections: [2]models.Section{
				{Header: "Badge Markup", Content: "A badge embeds the live status image of a configuration into external pages. Copy the ready badge snippet from the overview tab."},
				{Header: "Badge Styles", Content: "Flat and plastic styles are available in several colors. Pick the style that fits your site theme."},
			},
			question: "What embeds the live status image of a configuration?",
			answer:   "A badge embeds the live status image of a configuration into external pages",
		},
		{
			title: "User Permissions", category: "Administration",
			sections: [2]models.Section{
				{Header: "Permission Matrix", Content: "The permission matrix maps each group to the operations allowed on a configuration. Anonymous visitors get no access unless explicitly granted."},
				{Header: "Built-in Groups", Content: "Administrators, authenticated users, and anonymous users exist out of the box. Custom groups refine these defaults."},
			},
			question: "What maps each group to the operations allowed on a configuration?",
			answer:   "The permission matrix maps each group to the operations allowed on a configuration",
		},
		{
			title: "Audit Log", category: "Administration",
			sections: [2]models.Section{
				{Header: "Audit Events", Content: "Every audit event records which user changed which setting and when. Filter the log by user or by date range to narrow a search."},
				{Header: "Log Size", Content: "Old audit entries roll off after the configured limit. Export entries before they expire if compliance demands it."},
			},
			question: "Which audit event records which user changed a setting?",
			answer:   "Every audit event records which user changed which setting and when",
		},
		{
			title: "Database Backup", category: "Administration",
			sections: [2]models.Section{
				{Header: "Backup Schedule", Content: "Automatic backups run on a fixed schedule and write compressed archives. Keep the archives on a disk separate from the data directory."},
				{Header: "Restore", Content: "Restoring replaces the current database with the chosen archive. The server must be stopped during a restore."},
			},
			question: "Do automatic backups run on a fixed schedule?",
			answer:   "Automatic backups run on a fixed schedule and write compressed archives",
		},
		{
			title: "Build Promotion", category: "Workflow",
			sections: [2]models.Section{
				{Header: "Promotion Chain", Content: "A promotion chain moves a finished build from one configuration to another together with its artifacts. A promotion may demand manual approval before it proceeds."},
				{Header: "Promotion History", Content: "Each promotion leaves an entry linking source and target builds. The entry shows who approved it."},
			},
			question: "What moves a finished build from one configuration to another?",
			answer:   "A promotion chain moves a finished build from one configuration to another together with its artifacts",
		},
		{
			title: "Proxy Agents", category: "Grid",
			sections: [2]models.Section{
				{Header: "Credential Rotation", Content: "Proxy credentials rotate automatically at every rotation interval. A stale credential forces the proxy to enroll again."},
				{Header: "Why Proxies", Content: "A proxy relays traffic for agents stuck behind a firewall. One proxy can serve many agents."},
			},
			question: "Do proxy credentials rotate automatically at every rotation interval?",
			answer:   "Proxy credentials rotate automatically at every rotation interval",
		},
		{
			title: "REST API", category: "Integration",
			sections: [2]models.Section{
				{Header: "API Tokens", Content: "REST requests authenticate with an api token sent in the authorization header. Tokens are minted per user from the account page."},
				{Header: "Pagination", Content: "List endpoints page results with offset and limit parameters. The response reports the total count."},
			},
			question: "Do REST requests authenticate with an api token in the authorization header?",
			answer:   "REST requests authenticate with an api token sent in the authorization header",
		},
		{
			title: "Build Queue", category: "Grid",
			sections: [2]models.Section{
				{Header: "Queue Priority", Content: "Waiting build requests are served strictly by priority and then by submission time. Raise the priority of an urgent request from the queue page."},
				{Header: "Concurrency", Content: "A configuration limits how many of its builds run at once. Extra requests stay waiting until a slot frees."},
			},
		},
		{
			title: "Build Reports", category: "Reports",
			sections: [2]models.Section{
				{Header: "JUnit Results", Content: "The junit publisher parses xml result files and tallies passed and failed tests. Failures list their stack traces inline."},
				{Header: "Report Categories", Content: "Reports group under categories on the build page. Empty categories stay hidden."},
			},
		},
		{
			title: "Code Coverage", category: "Reports",
			sections: [2]models.Section{
				{Header: "Coverage Gate", Content: "A coverage gate fails the build when line coverage drops under the floor you set. Gates apply to each category separately."},
				{Header: "Coverage Trends", Content: "Coverage trends chart the percentage across recent builds. A steady decline deserves attention."},
			},
		},
		{
			title: "Build Workspace", category: "Configuration",
			sections: [2]models.Section{
				{Header: "Workspace Cleanup", Content: "Cleanup deletes stale checkout directories after their idle period passes. Directories of running builds are never touched."},
				{Header: "Workspace Layout", Content: "Each configuration owns a private workspace directory per node. Paths stay stable between builds."},
			},
		},
		{
			title: "Plugin Development", category: "Development",
			sections: [2]models.Section{
				{Header: "Extension Points", Content: "Plugins contribute behavior by implementing extension points exposed by the core. Every extension point documents its contract."},
				{Header: "Packaging", Content: "Bundle a plugin as a jar with a descriptor inside. Drop the jar into the plugins folder and restart."},
			},
		},
		{
			title: "System Maintenance", category: "Administration",
			sections: [2]models.Section{
				{Header: "Maintenance Mode", Content: "Maintenance mode pauses the queue and lets running builds finish before shutdown. Switch it on ahead of an upgrade."},
				{Header: "Log Files", Content: "Server logs roll over daily under the logs directory. Raise the log level only while chasing a problem."},
			},
		},
		{
			title: "Build Statistics", category: "Reports",
			sections: [2]models.Section{
				{Header: "Duration Trend", Content: "Duration charts plot how long recent builds took. A sudden spike usually means an environment problem."},
				{Header: "Success Rate", Content: "The success rate panel shows the passing fraction over a time window. Hover for exact numbers."},
			},
		},
		{
			title: "Configuration Cloning", category: "Configuration",
			sections: [2]models.Section{
				{Header: "Clone Options", Content: "Cloning copies the settings of a configuration and optionally its descendant subtree. Build history never comes along."},
				{Header: "After Cloning", Content: "Review triggers and notifiers on the clone before enabling it. Clones start disabled."},
			},
		},
		{
			title: "Issue Tracker Links", category: "Integration",
			sections: [2]models.Section{
				{Header: "Jira Integration", Content: "Commit comments turn issue keys into links pointing at the tracker. Configure the tracker base address once per project."},
				{Header: "Issue Transitions", Content: "A build can move linked issues to a new workflow state. Map build outcomes to transitions."},
			},
		},
		{
			title: "Upgrading", category: "Administration",
			sections: [2]models.Section{
				{Header: "Upgrade Steps", Content: "Stop the server, swap the installation, and start it again to upgrade. Data migrates forward on first boot."},
				{Header: "Compatibility", Content: "Agents older than the server keep working within the same major line. Mixed minor versions are supported."},
			},
		},
	}
}

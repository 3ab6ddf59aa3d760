package postgresql

// migrations returns the schema migrations for the automation engine's slice
// of the clinic datastore. Entity tables (deals, patients, stages, services,
// users) are owned by the intake and scheduling modules; they are created here
// too so the engine can run against an empty database in development.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS patients (
				id UUID PRIMARY KEY,
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS stages (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS services (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT ''
			);

			CREATE TABLE IF NOT EXISTS deals (
				id UUID PRIMARY KEY,
				title TEXT NOT NULL DEFAULT '',
				category TEXT NOT NULL DEFAULT '',
				notes TEXT NOT NULL DEFAULT '',
				service_id UUID,
				stage_id UUID,
				patient_id UUID,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS automations (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				trigger_type TEXT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				config JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_automations_trigger
				ON automations (trigger_type) WHERE active;

			CREATE TABLE IF NOT EXISTS automation_actions (
				id UUID PRIMARY KEY,
				automation_id UUID NOT NULL REFERENCES automations (id) ON DELETE CASCADE,
				action_type TEXT NOT NULL,
				config JSONB NOT NULL DEFAULT '{}',
				sort_key INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS enrollments (
				id UUID PRIMARY KEY,
				automation_id UUID NOT NULL,
				deal_id UUID NOT NULL,
				patient_id UUID NOT NULL,
				status TEXT NOT NULL,
				trigger_snapshot JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_enrollments_automation
				ON enrollments (automation_id, created_at);

			CREATE TABLE IF NOT EXISTS enrollment_steps (
				id UUID PRIMARY KEY,
				enrollment_id UUID NOT NULL REFERENCES enrollments (id) ON DELETE CASCADE,
				step_type TEXT NOT NULL,
				step_action TEXT NOT NULL,
				step_config JSONB NOT NULL DEFAULT '{}',
				status TEXT NOT NULL,
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL,
				result JSONB,
				error_message TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX IF NOT EXISTS idx_enrollment_steps_enrollment
				ON enrollment_steps (enrollment_id, executed_at);

			CREATE TABLE IF NOT EXISTS tasks (
				id UUID PRIMARY KEY,
				title TEXT NOT NULL DEFAULT '',
				deal_id UUID,
				patient_id UUID,
				assignee_id UUID,
				enrollment_id UUID,
				status TEXT NOT NULL,
				due_at TIMESTAMP WITH TIME ZONE NOT NULL,
				scheduled_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks (created_at);
			CREATE INDEX IF NOT EXISTS idx_tasks_scheduled
				ON tasks (scheduled_at) WHERE status = 'scheduled';

			CREATE TABLE IF NOT EXISTS message_templates (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				subject TEXT NOT NULL DEFAULT '',
				content TEXT NOT NULL DEFAULT ''
			);

			CREATE TABLE IF NOT EXISTS messages (
				id UUID PRIMARY KEY,
				patient_id UUID,
				enrollment_id UUID,
				from_address TEXT NOT NULL DEFAULT '',
				to_address TEXT NOT NULL,
				subject TEXT NOT NULL DEFAULT '',
				html_body TEXT NOT NULL DEFAULT '',
				reply_alias TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				scheduled_at TIMESTAMP WITH TIME ZONE,
				sent_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS chat_messages (
				id UUID PRIMARY KEY,
				patient_id UUID,
				enrollment_id UUID,
				to_number TEXT NOT NULL,
				body TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				external_id TEXT NOT NULL DEFAULT '',
				scheduled_at TIMESTAMP WITH TIME ZONE,
				sent_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_chat_messages_scheduled
				ON chat_messages (scheduled_at) WHERE status = 'scheduled';
		`,
	}
}

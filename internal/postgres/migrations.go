package postgres

const schema = `
create table if not exists projects (
    id text primary key,
    organization_id text not null,
    owner_id text not null,
    name text not null,
    description text not null default '',
    status text not null check (status in ('DRAFT', 'PLANNED', 'ACTIVE', 'ON_HOLD', 'COMPLETED', 'ARCHIVED')),
    start_date timestamptz,
    end_date timestamptz,
    progress integer not null default 0 check (progress between 0 and 100),
    total_tasks integer not null default 0,
    completed_tasks integer not null default 0,
    is_archived boolean not null default false,
    created_at timestamptz not null,
    updated_at timestamptz not null,
    check ((status = 'ARCHIVED') = is_archived)
);
create index if not exists idx_org_projects on projects(organization_id);

create table if not exists project_members (
    project_id text not null references projects(id),
    user_id text not null,
    role text not null check (role in ('OWNER', 'MANAGER', 'MEMBER', 'VIEWER')),
    added_by text not null,
    is_active boolean not null default true,
    created_at timestamptz not null,
    primary key (project_id, user_id)
);
create index if not exists idx_member_user on project_members(user_id);

create table if not exists tasks (
    id text primary key,
    project_id text not null references projects(id),
    title text not null,
    status text not null default 'TODO',
    is_mandatory boolean not null default false,
    assignee_id text,
    created_at timestamptz not null default now()
);
create index if not exists idx_project_tasks on tasks(project_id);

create table if not exists activity_log (
    id bigserial primary key,
    project_id text not null,
    activity_type text not null,
    actor_id text not null,
    entity_type text not null,
    entity_id text not null,
    changes jsonb,
    description text not null default '',
    created_at timestamptz not null
);
create index if not exists idx_project_activity on activity_log(project_id, created_at desc);

create table if not exists api_keys (
    key_hash text primary key,
    user_id text not null,
    created_at timestamptz not null default now(),
    last_used timestamptz,
    description text
);
`

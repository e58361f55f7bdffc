package sqlinline

// SQLite dialect of the video_logs statements. Timestamps are stored as
// fixed-width UTC text so they order lexically.

const QSQLiteCreateJobs = `--sql 08cfea41-f48c-42e4-b5a3-6235719952cf
create table if not exists video_logs (
  id          integer primary key autoincrement,
  ad_idea     text,
  title       text,
  prompt      text,
  status      text not null default 'in_progress',
  task_id     text,
  video_url   text,
  error       text,
  model       text,
  resolution  text,
  created_at  text not null,
  updated_at  text not null
);
create index if not exists video_logs_status_created_idx on video_logs (status, created_at);
`

const QSQLiteInsertJobPrefix = `--sql 49df69c6-1c68-4ccb-8466-7973828129b2
insert into video_logs`

const QSQLiteUpdateJobPrefix = `--sql f04bbf44-5437-44df-a201-77ccf1daac43
update video_logs set`

const QSQLiteSelectJobStatusByID = `--sql e8c4863c-bd0a-4fd3-bc0f-c86f69c4a167
select status from video_logs where id = ?;`

const QSQLiteSelectJobByID = `--sql 412bc047-c34c-4d67-a7c4-67c1823d39aa
select
  id,
  coalesce(ad_idea, ''),
  coalesce(title, ''),
  coalesce(prompt, ''),
  status,
  coalesce(task_id, ''),
  coalesce(video_url, ''),
  coalesce(error, ''),
  coalesce(model, ''),
  coalesce(resolution, ''),
  created_at,
  updated_at
from video_logs
where id = ?;`

// QSQLiteListJobs binds status twice and the cutoff twice, then the limit.
const QSQLiteListJobs = `--sql dd3a81b1-dc7d-459a-b83b-c478993f0e85
select
  id,
  coalesce(ad_idea, ''),
  coalesce(title, ''),
  coalesce(prompt, ''),
  status,
  coalesce(task_id, ''),
  coalesce(video_url, ''),
  coalesce(error, ''),
  coalesce(model, ''),
  coalesce(resolution, ''),
  created_at,
  updated_at
from video_logs
where (? = '' or status = ?)
  and (? is null or created_at < ?)
order by id desc
limit ?;`

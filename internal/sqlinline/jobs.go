package sqlinline

// QInsertJobPrefix and QUpdateJobPrefix are completed by the job repository
// with the column list of the fields being written.
const QInsertJobPrefix = `--sql 54c93ce1-6a3e-43d7-b640-4b3a288cabcc
insert into video_logs`

const QUpdateJobPrefix = `--sql a27624c0-0d9b-49fe-9912-2a710ea3edd1
update video_logs set`

const QSelectJobStatusByID = `--sql 3abe7d57-e4fc-4449-b8f6-4f5caea54c04
select status from video_logs where id = $1;
`

const QSelectJobByID = `--sql 3bda42b5-a2af-4d62-b395-9a100f14f5ab
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
where id = $1;
`

const QListJobs = `--sql 8029942c-6262-482d-87e0-5d30141897a2
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
where ($1::text = '' or status = $1::text)
  and ($2::timestamptz is null or created_at < $2::timestamptz)
order by id desc
limit $3;
`
